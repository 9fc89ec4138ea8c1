// Package mockapi is an in-memory rendition of the catalog backend, used
// for local development and end-to-end tests of the admin client. It
// implements the same four endpoints with server-assigned integer IDs and
// bearer-token enforcement on mutating routes.
package mockapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/swabcity/catalogadmin/internal/catalog"
)

type APIService struct {
	apiKey string

	mu       sync.Mutex
	nextID   int64
	products []catalog.Product
}

// NewAPIService creates a service with an empty catalog. When apiKey is
// non-empty, mutating routes require a matching bearer token.
func NewAPIService(apiKey string) *APIService {
	return &APIService{
		apiKey: apiKey,
		nextID: 1,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "catalog mock backend is running")
	})

	e.GET("/products", s.listProductsHandler)
	e.POST("/product", s.addProductHandler, s.requireAuth)
	e.PATCH("/product/:id", s.updateProductHandler, s.requireAuth)
	e.DELETE("/product/:id", s.deleteProductHandler, s.requireAuth)
}

// requireAuth enforces the bearer token on mutating routes. A service
// without a configured key accepts every request.
func (s *APIService) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.apiKey == "" {
			return next(c)
		}
		header := c.Request().Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == token || token != s.apiKey {
			slog.Info("rejected unauthorized request",
				"method", c.Request().Method, "path", c.Path())
			return c.String(http.StatusUnauthorized, "invalid or missing bearer token")
		}
		return next(c)
	}
}

type productRequest struct {
	ID          *int64  `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Currency    string  `json:"currency" validate:"required"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

func (s *APIService) listProductsHandler(c echo.Context) error {
	s.mu.Lock()
	snapshot := append([]catalog.Product{}, s.products...)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, snapshot)
}

func (s *APIService) addProductHandler(c echo.Context) error {
	var request productRequest
	if err := c.Bind(&request); err != nil {
		return c.String(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&request); err != nil {
		return err
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	product := catalog.Product{
		ID:          &id,
		Name:        request.Name,
		Price:       request.Price,
		Currency:    request.Currency,
		Description: request.Description,
		Image:       request.Image,
	}
	s.products = append(s.products, product)
	s.mu.Unlock()

	slog.Info("product added", "id", id, "name", product.Name)
	return c.JSON(http.StatusCreated, product)
}

func (s *APIService) updateProductHandler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid product id")
	}

	var request productRequest
	if err := c.Bind(&request); err != nil {
		return c.String(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&request); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID != nil && *p.ID == id {
			s.products[i] = catalog.Product{
				ID:          p.ID,
				Name:        request.Name,
				Price:       request.Price,
				Currency:    request.Currency,
				Description: request.Description,
				Image:       request.Image,
			}
			slog.Info("product updated", "id", id)
			return c.JSON(http.StatusOK, s.products[i])
		}
	}
	return c.String(http.StatusNotFound, "product not found")
}

func (s *APIService) deleteProductHandler(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid product id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID != nil && *p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			slog.Info("product deleted", "id", id)
			return c.NoContent(http.StatusNoContent)
		}
	}
	return c.String(http.StatusNotFound, "product not found")
}
