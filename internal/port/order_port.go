package port

import (
	"context"

	"github.com/nikolayk812/shopcart/internal/domain"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.Order, error)
}

type OrderReader interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}

type ProductFetcher interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

type SessionInvalidator interface {
	Invalidate(ctx context.Context)
}
