package book

import (
	"database/sql"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/fern/internal/repositories/addressbook"
	"github.com/Ramsey-B/fern/internal/repositories/contact"
	"github.com/Ramsey-B/fern/pkg/contacts"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Register registers address book and contact routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
	g.GET("/:id", Get)
	g.DELETE("/:id", Delete)

	g.GET("/:id/contacts", ListContacts)
	g.POST("/:id/contacts", CreateContact)
	g.PUT("/:id/contacts/:contactId", UpdateContact)
	g.DELETE("/:id/contacts/:contactId", DeleteContact)
}

// List returns all address books
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "book_handler.List")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*addressbook.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	books, err := repo.List(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list address books")
	}

	return c.JSON(http.StatusOK, books)
}

// Create creates a new address book
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "book_handler.Create")
	defer span.End()

	var req models.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*addressbook.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	book, err := repo.Create(ctx, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create address book")
	}

	return c.JSON(http.StatusCreated, book)
}

// Get returns a single address book
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "book_handler.Get")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*addressbook.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	book, err := repo.GetByID(ctx, c.Param("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get address book")
	}
	if book == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "address book not found")
	}

	return c.JSON(http.StatusOK, book)
}

// Delete soft deletes an address book
func Delete(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "book_handler.Delete")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*addressbook.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, c.Param("id")); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete address book")
	}

	return c.NoContent(http.StatusNoContent)
}

// ListContacts returns a book's contacts
func ListContacts(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "book_handler.ListContacts")
	defer span.End()

	ctx, store, err := ectoinject.GetContext[*contacts.PostgresStore](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get contact store")
	}

	records, _, err := store.ListRecords(ctx, c.Param("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list contacts")
	}

	return c.JSON(http.StatusOK, records)
}

// CreateContact adds a contact to a book
func CreateContact(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "book_handler.CreateContact")
	defer span.End()

	var req models.CreateContactRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*contact.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	row, err := repo.Create(ctx, c.Param("id"), req.Fields)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create contact")
	}

	return c.JSON(http.StatusCreated, row)
}

// UpdateContact replaces a contact's raw field map
func UpdateContact(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "book_handler.UpdateContact")
	defer span.End()

	var req models.UpdateContactRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*contact.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Update(ctx, c.Param("id"), c.Param("contactId"), req.Fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httperror.NewHTTPError(http.StatusNotFound, "contact not found")
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update contact")
	}

	return c.NoContent(http.StatusNoContent)
}

// DeleteContact removes a contact from a book
func DeleteContact(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "book_handler.DeleteContact")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*contact.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	if err := repo.Delete(ctx, c.Param("id"), c.Param("contactId")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return httperror.NewHTTPError(http.StatusNotFound, "contact not found")
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete contact")
	}

	return c.NoContent(http.StatusNoContent)
}
