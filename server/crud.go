package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// crud serves list/get/create/update/delete of one table keyed by a uuid
// string id.
type crud[T any] struct {
	db       *gorm.DB
	idOf     func(*T) *string
	validate func(*T) error
	order    string
	// filters are columns that may be matched by a query parameter of the
	// same name on list.
	filters []string
	// afterWrite runs after every successful create, update and delete.
	afterWrite func(ctx context.Context)
}

func newCrud[T any](db *gorm.DB, idOf func(*T) *string, validate func(*T) error) *crud[T] {
	return &crud[T]{db: db, idOf: idOf, validate: validate}
}

func (r *crud[T]) register(rg *gin.RouterGroup) {
	rg.GET("", r.list)
	rg.GET("/:id", r.get)
	rg.POST("", r.create)
	rg.PUT("/:id", r.update)
	rg.DELETE("/:id", r.delete)
}

func (r *crud[T]) written(c *gin.Context) {
	if r.afterWrite != nil {
		r.afterWrite(c.Request.Context())
	}
}

func (r *crud[T]) list(c *gin.Context) {
	query := r.db.WithContext(c.Request.Context())
	if r.order != "" {
		query = query.Order(r.order)
	}
	for _, column := range r.filters {
		if v := c.Query(column); v != "" {
			query = query.Where(column+" = ?", v)
		}
	}
	rows := []T{}
	if err := query.Find(&rows).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (r *crud[T]) load(c *gin.Context) (*T, error) {
	var row T
	err := r.db.WithContext(c.Request.Context()).First(&row, "id = ?", c.Param("id")).Error
	if err != nil {
		return nil, errors.Wrapf(err, "id %s", c.Param("id"))
	}
	return &row, nil
}

func (r *crud[T]) get(c *gin.Context) {
	row, err := r.load(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (r *crud[T]) create(c *gin.Context) {
	var row T
	if err := c.ShouldBindJSON(&row); err != nil {
		respondError(c, badRequest("invalid body: %s", err))
		return
	}
	*r.idOf(&row) = uuid.New().String()
	if err := r.validate(&row); err != nil {
		respondError(c, err)
		return
	}
	if err := r.db.WithContext(c.Request.Context()).Create(&row).Error; err != nil {
		respondError(c, err)
		return
	}
	r.written(c)
	c.JSON(http.StatusCreated, row)
}

// update replaces the fields present in the body, the id never changes.
func (r *crud[T]) update(c *gin.Context) {
	row, err := r.load(c)
	if err != nil {
		respondError(c, err)
		return
	}
	id := *r.idOf(row)
	if err := c.ShouldBindJSON(row); err != nil {
		respondError(c, badRequest("invalid body: %s", err))
		return
	}
	*r.idOf(row) = id
	if err := r.validate(row); err != nil {
		respondError(c, err)
		return
	}
	if err := r.db.WithContext(c.Request.Context()).Save(row).Error; err != nil {
		respondError(c, err)
		return
	}
	r.written(c)
	c.JSON(http.StatusOK, row)
}

func (r *crud[T]) delete(c *gin.Context) {
	res := r.db.WithContext(c.Request.Context()).Delete(new(T), "id = ?", c.Param("id"))
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, errors.Wrapf(gorm.ErrRecordNotFound, "id %s", c.Param("id")))
		return
	}
	r.written(c)
	c.Status(http.StatusNoContent)
}
