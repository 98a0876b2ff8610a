package usecase

import (
	"context"

	"github.com/bodhirag/catalog-backend/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	SearchProducts(ctx context.Context, req *SearchProductsReq) ([]ProductSearchResult, error)
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id string, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type AuthUC interface {
	Register(ctx context.Context, req *RegisterReq) (*RegisterRes, error)
	Login(ctx context.Context, req *LoginReq) (*TokenRes, error)
	VerifyToken(ctx context.Context, token string) (jwt.MapClaims, error)
}
