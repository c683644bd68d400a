package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskpulse/internal/service"
)

var statusByKind = map[service.Kind]int{
	service.KindNotFound:     http.StatusNotFound,
	service.KindForbidden:    http.StatusForbidden,
	service.KindValidation:   http.StatusBadRequest,
	service.KindConflict:     http.StatusConflict,
	service.KindUnauthorized: http.StatusUnauthorized,
	service.KindStorage:      http.StatusInternalServerError,
}

// respondError writes err as {"detail": ...}. Storage failures are attached
// to the gin context so RequestLogger records them; the client only sees a
// generic message.
func respondError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if kind == service.KindStorage {
		_ = c.Error(err)
	}
	if kind == service.KindUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": service.PublicMessage(err)})
}

// respondUnprocessable reports a request that could not be decoded.
func respondUnprocessable(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": detail})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondUnprocessable(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// actor returns the caller resolved by RequireAuth.
func actor(c *gin.Context) (*service.Actor, bool) {
	a, ok := service.ActorFromContext(c.Request.Context())
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
	}
	return a, ok
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondUnprocessable(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondUnprocessable(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondUnprocessable(c, "invalid "+name)
		return 0, false
	}
	return n, true
}

func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		respondUnprocessable(c, "invalid "+name)
		return nil, false
	}
	return &b, true
}

const dateLayout = "2006-01-02"

// queryTime accepts RFC 3339 timestamps or plain dates. dateOnly reports
// whether the value was a plain date.
func queryTime(c *gin.Context, name string) (t *time.Time, dateOnly bool, ok bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, false, true
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		parsed = parsed.UTC()
		return &parsed, false, true
	}
	if parsed, err := time.Parse(dateLayout, raw); err == nil {
		return &parsed, true, true
	}
	respondUnprocessable(c, "invalid "+name+": use YYYY-MM-DD or RFC 3339")
	return nil, false, false
}

// pagination reads limit and offset.
func pagination(c *gin.Context) (limit, offset int, ok bool) {
	if limit, ok = queryInt(c, "limit"); !ok {
		return 0, 0, false
	}
	if offset, ok = queryInt(c, "offset"); !ok {
		return 0, 0, false
	}
	if limit < 0 || offset < 0 {
		respondUnprocessable(c, "limit and offset must not be negative")
		return 0, 0, false
	}
	return limit, offset, true
}
