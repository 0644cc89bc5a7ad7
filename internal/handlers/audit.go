package handlers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/crucial707/timetable-api/internal/models"
)

// AuditReader is the read side of audit.Recorder. The trail has no write routes.
type AuditReader interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.AuditLog, error)
	List(ctx context.Context, f models.AuditFilter) ([]models.AuditLog, int64, error)
}

type AuditHandler struct {
	Audit AuditReader
}

// ListAuditLogs returns entries newest first.
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := newQueryParams(r, models.EntityAuditLog)
	f := models.AuditFilter{
		Entity:      q.string("entity"),
		EntityID:    q.objectID("entityId"),
		PerformedBy: q.objectID("performedBy"),
		Action:      models.Action(q.string("action")),
		From:        q.time("from"),
		To:          q.time("to"),
	}
	if f.Action != "" && !models.IsValidAction(f.Action) {
		q.fail("action", models.RuleEnum, "action is not a known audit action")
	}
	if err := q.err(); err != nil {
		WriteError(w, r, err)
		return
	}
	f.Limit, f.Offset = parsePage(r)

	items, total, err := h.Audit.List(r.Context(), f)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if items == nil {
		items = []models.AuditLog{}
	}
	writeJSON(w, http.StatusOK, Page[models.AuditLog]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *AuditHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	entry, err := h.Audit.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
