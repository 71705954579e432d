package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ListsHandler struct {
	Service *lists.Service
	Logger  *zap.Logger
}

type createListReq struct {
	Title string            `json:"title"`
	Items []lists.ItemInput `json:"items"`
}

type updateItemReq struct {
	Status       string `json:"status"`
	QtyCollected any    `json:"qtyCollected"`
}

type completeListReq struct {
	EmployeeID any `json:"employeeId"`
}

func (h *ListsHandler) Register(r chi.Router) {
	r.Post("/lists", h.createList)
	r.Get("/lists", h.listLists)
	r.Get("/lists/{listId}", h.getList)
	r.Delete("/lists/{listId}", h.deleteList)
	r.Patch("/lists/{listId}/items/{itemId}", h.updateItem)
	r.Post("/lists/{listId}/complete", h.completeList)
}

func (h *ListsHandler) createList(w http.ResponseWriter, r *http.Request) {
	var req createListReq
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	l, err := h.Service.CreateList(r.Context(), lists.CreateListInput{
		ShopID: r.URL.Query().Get("shopId"),
		Title:  req.Title,
		Items:  req.Items,
	})
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListsHandler) getList(w http.ResponseWriter, r *http.Request) {
	l, err := h.Service.GetList(r.Context(), chi.URLParam(r, "listId"), r.URL.Query().Get("shopId"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListsHandler) listLists(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.ListLists(r.Context(), r.URL.Query().Get("shopId"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ListsHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	it, err := h.Service.UpdateItem(r.Context(), lists.UpdateItemInput{
		ListID:       chi.URLParam(r, "listId"),
		ItemID:       chi.URLParam(r, "itemId"),
		Status:       req.Status,
		QtyCollected: req.QtyCollected,
	})
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ListsHandler) completeList(w http.ResponseWriter, r *http.Request) {
	var req completeListReq
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	c, err := h.Service.CompleteList(r.Context(), lists.CompleteListInput{
		ListID:     chi.URLParam(r, "listId"),
		EmployeeID: req.EmployeeID,
		ShopID:     r.URL.Query().Get("shopId"),
	})
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ListsHandler) deleteList(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteList(r.Context(), chi.URLParam(r, "listId"), r.URL.Query().Get("shopId"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "List deleted successfully"})
}
