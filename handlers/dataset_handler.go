package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"blackbook-pipeline/models"
	"blackbook-pipeline/repository"
	"blackbook-pipeline/service"
	"blackbook-pipeline/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DatasetHandler handles HTTP requests for the extracted dataset
type DatasetHandler struct {
	docRepo        *repository.DocumentRepository
	orderRepo      *repository.OrderRecordRepository
	ruleBodyRepo   *repository.RuleBodyRepository
	failureRepo    *repository.FailureRepository
	adminOrderRepo *repository.AdminOrderRepository
	archive        storage.Storage
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(
	docRepo *repository.DocumentRepository,
	orderRepo *repository.OrderRecordRepository,
	ruleBodyRepo *repository.RuleBodyRepository,
	failureRepo *repository.FailureRepository,
	adminOrderRepo *repository.AdminOrderRepository,
	archive storage.Storage,
) *DatasetHandler {
	return &DatasetHandler{
		docRepo:        docRepo,
		orderRepo:      orderRepo,
		ruleBodyRepo:   ruleBodyRepo,
		failureRepo:    failureRepo,
		adminOrderRepo: adminOrderRepo,
		archive:        archive,
	}
}

// ListDocuments handles GET /api/documents
func (h *DatasetHandler) ListDocuments(c *gin.Context) {
	docs, err := h.docRepo.List(c.Request.Context())
	if err != nil {
		databaseError(c, "Failed to list documents", err)
		return
	}

	// Content can run to megabytes per volume, so the listing returns
	// metadata only.
	summaries := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, gin.H{
			"id":           doc.ID,
			"label":        doc.Label,
			"filename":     doc.Filename,
			"period_start": doc.PeriodStart,
			"period_end":   doc.PeriodEnd,
			"status":       doc.Status,
			"pages":        len(doc.PageOffsets),
			"content_size": len(doc.Content),
			"created_at":   doc.CreatedAt,
			"updated_at":   doc.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summaries,
	})
}

// DownloadArchive handles GET /api/documents/:id/archive. It streams the
// archived source PDF for a converted volume.
func (h *DatasetHandler) DownloadArchive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "document id must be a UUID",
			},
		})
		return
	}

	doc, err := h.docRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOCUMENT_NOT_FOUND",
				"message": "no document with that id",
			},
		})
		return
	}
	if doc.StoragePath == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_ARCHIVE",
				"message": "document has no archived source",
			},
		})
		return
	}

	artifact, err := h.archive.Download(c.Request.Context(), *doc.StoragePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": fmt.Sprintf("Failed to read archive: %v", err),
			},
		})
		return
	}
	defer artifact.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, artifact)
}

// ListOrders handles GET /api/orders
func (h *DatasetHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderRepo.List(c.Request.Context())
	if err != nil {
		databaseError(c, "Failed to list orders", err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
		c.Header("Content-Type", "text/csv")
		if err := service.WriteOrdersCSV(c.Writer, orders); err != nil {
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// ListRuleBodies handles GET /api/rule-bodies
func (h *DatasetHandler) ListRuleBodies(c *gin.Context) {
	var (
		recs []*models.RuleBodyRecord
		err  error
	)

	if yearStr := c.Query("year"); yearStr != "" {
		year, convErr := strconv.Atoi(yearStr)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_YEAR",
					"message": "year must be an integer",
				},
			})
			return
		}
		recs, err = h.ruleBodyRepo.ListByYear(c.Request.Context(), year)
	} else {
		recs, err = h.ruleBodyRepo.List(c.Request.Context())
	}
	if err != nil {
		databaseError(c, "Failed to list rule bodies", err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="rule_bodies.csv"`)
		c.Header("Content-Type", "text/csv")
		if err := service.WriteRuleBodiesCSV(c.Writer, recs); err != nil {
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    recs,
	})
}

// ListDisagreements handles GET /api/rule-bodies/disagreements
func (h *DatasetHandler) ListDisagreements(c *gin.Context) {
	recs, err := h.ruleBodyRepo.ListDisagreements(c.Request.Context())
	if err != nil {
		databaseError(c, "Failed to list disagreements", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    recs,
	})
}

// ListFailures handles GET /api/failures
func (h *DatasetHandler) ListFailures(c *gin.Context) {
	failures, err := h.failureRepo.List(c.Request.Context())
	if err != nil {
		databaseError(c, "Failed to list failures", err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="failures.csv"`)
		c.Header("Content-Type", "text/csv")
		if err := service.WriteFailuresCSV(c.Writer, failures); err != nil {
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    failures,
	})
}

// ListAdminOrders handles GET /api/admin-orders
func (h *DatasetHandler) ListAdminOrders(c *gin.Context) {
	var (
		orders []*models.AdminOrder
		err    error
	)

	if yearStr := c.Query("year"); yearStr != "" {
		year, convErr := strconv.Atoi(yearStr)
		if convErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_YEAR",
					"message": "year must be an integer",
				},
			})
			return
		}
		orders, err = h.adminOrderRepo.ListByYear(c.Request.Context(), year)
	} else {
		orders, err = h.adminOrderRepo.List(c.Request.Context())
	}
	if err != nil {
		databaseError(c, "Failed to list administrative orders", err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="admin_orders.csv"`)
		c.Header("Content-Type", "text/csv")
		if err := service.WriteAdminOrdersCSV(c.Writer, orders); err != nil {
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

func databaseError(c *gin.Context, message string, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": fmt.Sprintf("%s: %v", message, err),
		},
	})
}
