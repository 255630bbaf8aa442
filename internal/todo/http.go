package todo

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Store はTodoのCRUD操作を提供するサービスが実装します。
type Store interface {
	Create(ctx context.Context, body Body) (*Todo, error)
	List(ctx context.Context) ([]Todo, error)
	Get(ctx context.Context, id string) (*Todo, error)
	Update(ctx context.Context, id string, patch Patch) (*Todo, error)
	Delete(ctx context.Context, id string) error
}

// CreateHandler は POST /api/todo のハンドラーを返します。
func CreateHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body Body
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "Send title and description as JSON",
			})
			return
		}

		created, err := store.Create(c.Request.Context(), body)
		if err != nil {
			respondWithError(c, err, "Create task failed")
			return
		}

		c.JSON(http.StatusCreated, created)
	}
}

// ListHandler は GET /api/todo のハンドラーを返します。
func ListHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		todos, err := store.List(c.Request.Context())
		if err != nil {
			respondWithError(c, err, "List tasks failed")
			return
		}

		c.JSON(http.StatusOK, todos)
	}
}

// GetHandler は GET /api/todo/:id のハンドラーを返します。
func GetHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		found, err := store.Get(c.Request.Context(), id)
		if err != nil {
			respondWithError(c, err, fmt.Sprintf("Task of ID : %s doesn't exist", id))
			return
		}

		c.JSON(http.StatusOK, found)
	}
}

// UpdateHandler は PUT /api/todo/:id のハンドラーを返します。
func UpdateHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch Patch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "Send fields to update as JSON",
			})
			return
		}

		updated, err := store.Update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			respondWithError(c, err, "Update task failed")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// DeleteHandler は DELETE /api/todo/:id のハンドラーを返します。
func DeleteHandler(store Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondWithError(c, err, "Delete task failed")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
	}
}

// respondWithError はサービス層のエラーをHTTPステータスに変換します。
func respondWithError(c *gin.Context, err error, notFoundMsg string) {
	if errors.Is(err, ErrTodoNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "TASK_NOT_FOUND",
			"message": notFoundMsg,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "STORAGE_ERROR",
		"message": "Unexpected storage error",
	})
}
