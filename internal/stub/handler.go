package stub

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vmarchetti/library-console/internal/model"
	"github.com/vmarchetti/library-console/pkg/validate"
)

// Handler serves the same REST contract as the real library backend, against
// the in-memory repository. Used for local development and as the remote in
// tests.
type Handler struct {
	repo *Repository
	log  *zap.Logger
	now  func() time.Time
}

func New(repo *Repository, log *zap.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.Named("stub"),
		now:  time.Now,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api",
		middleware.RequestID(),
		newRateLimiterMW(apiRPS),
	)

	api.GET("/books", h.ListBooks)
	api.POST("/books", h.CreateBook)
	api.PUT("/books/:id", h.UpdateBook)
	api.DELETE("/books/:id", h.DeleteBook)

	api.GET("/users", h.ListUsers)
	api.POST("/users", h.CreateUser)
	api.PUT("/users/:id", h.UpdateUser)
	api.DELETE("/users/:id", h.DeleteUser)

	api.GET("/loans", h.ListLoans)
	api.POST("/loans", h.CreateLoan)
	api.PUT("/loans/:id", h.UpdateLoan)
	api.DELETE("/loans/:id", h.DeleteLoan)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type bookRequest struct {
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author" validate:"required"`
	ISBN      string `json:"isbn" validate:"required"`
	Available bool   `json:"available"`
}

type userRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

type loanRequest struct {
	UserID     string  `json:"user_id" validate:"required"`
	BookID     string  `json:"book_id" validate:"required"`
	LoanedAt   string  `json:"loaned_at"`
	Returned   bool    `json:"returned"`
	ReturnedAt *string `json:"returned_at"`
}

func (h *Handler) ListBooks(c echo.Context) error {
	books := h.repo.ListBooks()
	if len(books) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	book := h.repo.CreateBook(model.Book{
		Title:     req.Title,
		Author:    req.Author,
		ISBN:      req.ISBN,
		Available: req.Available,
	})
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	book, err := h.repo.UpdateBook(c.Param("id"), model.Book{
		Title:     req.Title,
		Author:    req.Author,
		ISBN:      req.ISBN,
		Available: req.Available,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) DeleteBook(c echo.Context) error {
	if err := h.repo.DeleteBook(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users := h.repo.ListUsers()
	if len(users) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	user := h.repo.CreateUser(model.User{
		Name:  req.Name,
		Email: req.Email,
	})
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	user, err := h.repo.UpdateUser(c.Param("id"), model.User{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	if err := h.repo.DeleteUser(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListLoans(c echo.Context) error {
	loans := h.repo.ListLoans()
	if len(loans) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, loans)
}

func (h *Handler) CreateLoan(c echo.Context) error {
	loan, httpErr := h.bindLoan(c)
	if httpErr != nil {
		return httpErr
	}
	created, err := h.repo.CreateLoan(loan, h.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrBookNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrBookUnavailable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateLoan(c echo.Context) error {
	loan, httpErr := h.bindLoan(c)
	if httpErr != nil {
		return httpErr
	}
	updated, err := h.repo.UpdateLoan(c.Param("id"), loan)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "loan not found")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteLoan(c echo.Context) error {
	if err := h.repo.DeleteLoan(c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "loan not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) bindLoan(c echo.Context) (model.Loan, error) {
	var req loanRequest
	if err := c.Bind(&req); err != nil {
		return model.Loan{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return model.Loan{}, err
	}
	loan := model.Loan{
		UserID:   req.UserID,
		BookID:   req.BookID,
		Returned: req.Returned,
	}
	if req.LoanedAt != "" {
		t, err := time.Parse(time.RFC3339, req.LoanedAt)
		if err != nil {
			return model.Loan{}, echo.NewHTTPError(http.StatusBadRequest, "loaned_at is invalid")
		}
		loan.LoanedAt = t
	}
	if req.ReturnedAt != nil && *req.ReturnedAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ReturnedAt)
		if err != nil {
			return model.Loan{}, echo.NewHTTPError(http.StatusBadRequest, "returned_at is invalid")
		}
		loan.ReturnedAt = &t
	}
	return loan, nil
}

func newRateLimiterMW(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}
