package e

import "fmt"

var (
	// Ошибки готовности внешних сервисов
	ErrEmbedderNotReady    = fmt.Errorf("embedding model is not initialized")
	ErrVectorStoreNotReady = fmt.Errorf("vector store is not initialized")

	// Внутренние ошибки с векторами и документами
	ErrDocumentNotFound   = fmt.Errorf("document not found")
	ErrEmptyEmbedding     = fmt.Errorf("embedding is empty")
	ErrDimensionMismatch  = fmt.Errorf("embedding dimension mismatch")
	ErrIncompleteMetadata = fmt.Errorf("incomplete product metadata")

	// 400 Bad Request
	ErrProductIDRequired    = fmt.Errorf("product id is required")
	ErrInvalidProductID     = fmt.Errorf("invalid product id")
	ErrProductNameRequired  = fmt.Errorf("product name is required")
	ErrPriceMustBePositive  = fmt.Errorf("price must be positive")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrEmptyQuery           = fmt.Errorf("search query cannot be empty")
	ErrEmptyUpdate          = fmt.Errorf("no update data provided")
	ErrDescriptionTooShort  = fmt.Errorf("description must be at least 10 characters")
	ErrUnknownCategory      = fmt.Errorf("unknown product category")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrFileTooLarge         = fmt.Errorf("file is too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrStatusBadRequest     = fmt.Errorf("bad request")

	// 401 Unauthorized / 404 Not Found
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUnauthorized       = fmt.Errorf("could not validate credentials")
	ErrUserExists         = fmt.Errorf("email already registered")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrProductNotFound    = fmt.Errorf("product not found")

	// 500 Internal Server Error
	ErrInternalServerError  = fmt.Errorf("internal server error")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
