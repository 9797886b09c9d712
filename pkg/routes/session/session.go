package session

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/fern/pkg/dedup"
	"github.com/Ramsey-B/fern/pkg/normalize"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Register registers duplicate search session routes
func Register(g *echo.Group) {
	g.POST("", Create)
	g.GET("", List)
	g.GET("/:id", Get)
	g.POST("/:id/advance", Advance)
	g.POST("/:id/skip", Skip)
	g.POST("/:id/keep-both", KeepBoth)
	g.POST("/:id/apply", Apply)
	g.POST("/:id/restart", Restart)
	g.DELETE("/:id", Close)
}

// CreateRequest is the payload for starting a duplicate search session
type CreateRequest struct {
	Book1ID string        `json:"book1Id" validate:"required"`
	Book2ID string        `json:"book2Id" validate:"required"`
	Options dedup.Options `json:"options"`
}

// SessionResponse describes a session's current state
type SessionResponse struct {
	ID    string      `json:"id"`
	State dedup.State `json:"state"`
	Stats dedup.Stats `json:"stats"`
	Pair  *dedup.Pair `json:"pair,omitempty"`
}

// KeepBothRequest carries per-side field edits for a keep-both decision
type KeepBothRequest struct {
	EditsA map[string]string `json:"editsA"`
	EditsB map[string]string `json:"editsB"`
}

// ApplyRequest carries a keep-one decision
type ApplyRequest struct {
	Keep  dedup.Side        `json:"keep" validate:"required,oneof=first second"`
	Edits map[string]string `json:"edits"`
}

func sessionResponse(s *dedup.Session) SessionResponse {
	return SessionResponse{
		ID:    s.ID(),
		State: s.State(),
		Stats: s.Stats(),
		Pair:  s.Current(),
	}
}

func getManager(c echo.Context) (*dedup.Manager, error) {
	_, manager, err := ectoinject.GetContext[*dedup.Manager](c.Request().Context())
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "session manager unavailable")
	}
	return manager, nil
}

func getSession(c echo.Context, manager *dedup.Manager) (*dedup.Session, error) {
	s, err := manager.Get(c.Param("id"))
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return s, nil
}

// Create starts a new duplicate search session
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "session_handler.Create")
	defer span.End()

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, manager, err := ectoinject.GetContext[*dedup.Manager](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "session manager unavailable")
	}

	s, err := manager.Create(ctx, req.Book1ID, req.Book2ID, req.Options)
	if err != nil {
		if errors.Is(err, normalize.ErrInvalidConfig) {
			return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, dedup.ErrStoreUnavailable) {
			return httperror.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}

	return c.JSON(http.StatusCreated, sessionResponse(s))
}

// List returns the ids of the live sessions
func List(c echo.Context) error {
	manager, err := getManager(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]string{"sessions": manager.IDs()})
}

// Get returns a session's current state
func Get(c echo.Context) error {
	manager, err := getManager(c)
	if err != nil {
		return err
	}
	s, err := getSession(c, manager)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse(s))
}

// Advance resumes the scan until the next pair, progress yield or the end
func Advance(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "session_handler.Advance")
	defer span.End()

	manager, err := getManager(c)
	if err != nil {
		return err
	}
	s, err := getSession(c, manager)
	if err != nil {
		return err
	}

	outcome, err := s.Advance(ctx)
	if err != nil {
		var perr *dedup.PersistenceError
		if errors.As(err, &perr) {
			// The pair is surfaced with the error so the caller can decide.
			return c.JSON(http.StatusConflict, map[string]any{
				"error":   perr.Error(),
				"outcome": outcome,
			})
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, outcome)
}

// Skip skips the current pair
func Skip(c echo.Context) error {
	manager, err := getManager(c)
	if err != nil {
		return err
	}
	s, err := getSession(c, manager)
	if err != nil {
		return err
	}
	if err := s.Skip(); err != nil {
		return httperror.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, sessionResponse(s))
}

// KeepBoth keeps both records of the current pair, applying any edits
func KeepBoth(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "session_handler.KeepBoth")
	defer span.End()

	var req KeepBothRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	manager, err := getManager(c)
	if err != nil {
		return err
	}
	s, err := getSession(c, manager)
	if err != nil {
		return err
	}

	if err := s.KeepBoth(ctx, req.EditsA, req.EditsB); err != nil {
		if errors.Is(err, dedup.ErrNoCurrentPair) {
			return httperror.NewHTTPError(http.StatusConflict, err.Error())
		}
		return httperror.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, sessionResponse(s))
}

// Apply keeps one record of the current pair and deletes the other
func Apply(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "session_handler.Apply")
	defer span.End()

	var req ApplyRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	manager, err := getManager(c)
	if err != nil {
		return err
	}
	s, err := getSession(c, manager)
	if err != nil {
		return err
	}

	if err := s.ApplyKeep(ctx, req.Keep, req.Edits); err != nil {
		if errors.Is(err, dedup.ErrNoCurrentPair) {
			return httperror.NewHTTPError(http.StatusConflict, err.Error())
		}
		return httperror.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, sessionResponse(s))
}

// Restart re-reads the books and starts a finished session over
func Restart(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "session_handler.Restart")
	defer span.End()

	manager, err := getManager(c)
	if err != nil {
		return err
	}
	s, err := getSession(c, manager)
	if err != nil {
		return err
	}

	if err := s.Restart(ctx); err != nil {
		return httperror.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, sessionResponse(s))
}

// Close stops a session and removes it, returning the final statistics
func Close(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "session_handler.Close")
	defer span.End()

	manager, err := getManager(c)
	if err != nil {
		return err
	}

	stats, err := manager.Close(ctx, c.Param("id"))
	if err != nil {
		return httperror.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, stats)
}
