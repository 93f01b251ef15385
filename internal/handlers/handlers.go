package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/laundry/api/internal/errors"
	"github.com/stwalsh4118/laundry/api/internal/repository"
	"github.com/stwalsh4118/laundry/api/internal/services"
)

// ListQuery represents the search and pagination query parameters shared by
// list endpoints.
type ListQuery struct {
	Q       string `form:"q" binding:"max=255"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Params converts the query into repository list parameters.
func (q ListQuery) Params() repository.ListParams {
	return repository.ListParams{Query: q.Q, Page: q.Page, PerPage: q.PerPage}
}

// IDParam binds the :id path segment.
type IDParam struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

// ListMeta describes the page returned by a list endpoint.
type ListMeta struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

// ListResponse is the envelope of every list endpoint.
type ListResponse[T any] struct {
	Data []T      `json:"data"`
	Meta ListMeta `json:"meta"`
}

// DataResponse wraps a single resource.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

func newListResponse[T, S any](page services.Page[S], mapFn func(S) T) ListResponse[T] {
	data := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		data = append(data, mapFn(item))
	}
	return ListResponse[T]{
		Data: data,
		Meta: ListMeta{
			Page:     page.Page,
			PerPage:  page.PerPage,
			Total:    page.Total,
			LastPage: page.LastPage(),
		},
	}
}

func identity[T any](v T) T { return v }

// bindError reports a binding failure as a field-level validation error when
// possible, or as a generic bad request.
func bindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, nil)
}

// bindID binds the :id path segment, writing a 400 on failure.
func bindID(c *gin.Context) (int64, bool) {
	var param IDParam
	if err := c.ShouldBindUri(&param); err != nil {
		bindError(c, err, "Invalid id")
		return 0, false
	}
	return param.ID, true
}

// bindList binds list query parameters, writing a 400 on failure.
func bindList(c *gin.Context) (repository.ListParams, bool) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err, "Invalid query parameters")
		return repository.ListParams{}, false
	}
	return query.Params(), true
}
