package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// bindPagination reads page and page_size query params into the given targets.
// Absent params leave the existing defaults untouched.
func bindPagination(c *gin.Context, page, pageSize *int) error {
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return fmt.Errorf("invalid page: %s", raw)
		}
		*page = parsed
	}
	if raw := c.Query("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return fmt.Errorf("invalid page_size: %s", raw)
		}
		*pageSize = parsed
	}
	return nil
}
