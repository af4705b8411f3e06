package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dukahub/duka-backend/internal/products"
	"github.com/dukahub/duka-backend/pkg/db/models"
	"github.com/dukahub/duka-backend/pkg/enums"
	pkgerrors "github.com/dukahub/duka-backend/pkg/errors"
	"github.com/dukahub/duka-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*models.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, pagination.Page, error)
	ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, pagination.Page, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}

type service struct {
	repo        Repository
	productRepo products.Repository
	tx          txRunner
}

// CreateOrderInput captures a checkout request.
type CreateOrderInput struct {
	UserID    uuid.UUID
	AddressID *uuid.UUID
	Items     []CreateOrderItem
}

// CreateOrderItem is a single product/quantity pair in a checkout.
type CreateOrderItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// DashboardSummary aggregates order counts for the admin dashboard.
type DashboardSummary struct {
	Counts map[enums.OrderStatus]int64 `json:"counts"`
	Total  int64                       `json:"total"`
}

// NewService wires an order service with its repositories.
func NewService(repo Repository, productRepo products.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, productRepo: productRepo, tx: tx}, nil
}

// Create prices the requested items from the current catalog, decrements
// stock, and writes the order in one transaction.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		total := decimal.Zero
		lines := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			product, err := productRepo.FindByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, products.ErrProductNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", item.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if !product.IsActive {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is not available", product.Name))
			}
			if err := productRepo.DecrementStock(ctx, product.ID, item.Quantity); err != nil {
				if errors.Is(err, products.ErrInsufficientStock) {
					return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %s", product.Name))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(lineTotal)
			lines = append(lines, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: product.Price,
				Quantity:  item.Quantity,
			})
		}

		order := &models.Order{
			UserID:    input.UserID,
			AddressID: input.AddressID,
			Status:    enums.OrderStatusPending,
			Total:     total,
			Items:     lines,
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get loads an order, enforcing ownership unless the caller is an admin.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, pagination.Page, error) {
	orders, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, pagination.NewPage(params, total), nil
}

func (s *service) ListAll(ctx context.Context, status *enums.OrderStatus, params pagination.Params) ([]models.Order, pagination.Page, error) {
	if status != nil && !status.IsValid() {
		return nil, pagination.Page{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *status))
	}
	orders, total, err := s.repo.List(ctx, status, params)
	if err != nil {
		return nil, pagination.Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return orders, pagination.NewPage(params, total), nil
}

// Cancel lets the owner cancel an order that has not started processing.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) error {
	order, err := s.Get(ctx, userID, orderID, false)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders can be cancelled")
	}
	if err := s.repo.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	return nil
}

// UpdateStatus applies an admin-driven status change.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return &DashboardSummary{Counts: counts, Total: total}, nil
}
