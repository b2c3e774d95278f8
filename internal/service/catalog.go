package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/storefront/internal/commerce"
	storeerrors "github.com/abgdnv/storefront/internal/errors"
	"golang.org/x/sync/errgroup"
)

// FeaturedCount is how many products the home page shows.
const FeaturedCount = 5

type Home struct {
	Featured   []commerce.Product
	Categories []commerce.Category
}

func (s *Service) Home(ctx context.Context) (Home, error) {
	var home Home
	var productsErr, categoriesErr error

	// Both fetches always run to completion; one failing must not cancel the other.
	var g errgroup.Group
	g.Go(func() error {
		products, err := s.api.Products(ctx)
		if err != nil {
			productsErr = fmt.Errorf("products: %w", err)
			return nil
		}
		if len(products) > FeaturedCount {
			products = products[:FeaturedCount]
		}
		home.Featured = products
		return nil
	})
	g.Go(func() error {
		categories, err := s.api.Categories(ctx)
		if err != nil {
			categoriesErr = fmt.Errorf("categories: %w", err)
			return nil
		}
		home.Categories = categories
		return nil
	})
	_ = g.Wait()

	return home, errors.Join(productsErr, categoriesErr)
}

func (s *Service) Category(ctx context.Context, categoryID int64) ([]commerce.Product, error) {
	return s.api.ProductsByCategory(ctx, categoryID)
}

// Product returns ErrProductNotFound, wrapping the cause, when the product cannot be loaded.
func (s *Service) Product(ctx context.Context, productID int64) (*commerce.Product, error) {
	product, err := s.api.Product(ctx, productID)
	if err != nil {
		return nil, errors.Join(storeerrors.ErrProductNotFound, err)
	}
	return product, nil
}
