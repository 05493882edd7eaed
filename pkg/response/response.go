package response

import (
	"encoding/json"
	"net/http"
)

type RESTEnvelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Meta    interface{} `json:"meta"`
}

type PaginationMeta struct {
	Page      int64 `json:"page"`
	Size      int64 `json:"size"`
	TotalData int64 `json:"total_data"`
	TotalPage int64 `json:"total_page"`
}

func NewPaginationMeta(page, size, total int64) PaginationMeta {
	totalPage := int64(0)
	if size > 0 {
		totalPage = (total + size - 1) / size
	}

	return PaginationMeta{
		Page:      page,
		Size:      size,
		TotalData: total,
		TotalPage: totalPage,
	}
}

func JSON(w http.ResponseWriter, statusCode int, envelope RESTEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope)
}
