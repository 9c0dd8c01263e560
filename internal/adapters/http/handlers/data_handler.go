package handlers

import (
	"healthmate/internal/core/domain"
	"healthmate/internal/core/services"
	"healthmate/internal/pkg/pagination"
	"healthmate/internal/pkg/response"
	"healthmate/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// DataHandler proxies the data resources of the signed in user
type DataHandler struct {
	data *services.DataService
}

// NewDataHandler creates a new data handler
func NewDataHandler(data *services.DataService) *DataHandler {
	return &DataHandler{data: data}
}

// List handles GET /data/:resource
func (h *DataHandler) List(c *fiber.Ctx) error {
	resource, err := domain.ParseResource(c.Params("resource"))
	if err != nil {
		return respondError(c, err)
	}

	opts := pagination.ListOptions(c)
	list, err := h.data.List(c.UserContext(), resource, opts)
	if err != nil {
		return respondError(c, err)
	}

	meta := pagination.GetMeta(pagination.Normalize(opts.Page, opts.Limit), list.Total)
	return response.SuccessWithMeta(c, "OK", list.Documents, meta)
}

// Get handles GET /data/:resource/:id
func (h *DataHandler) Get(c *fiber.Ctx) error {
	resource, err := domain.ParseResource(c.Params("resource"))
	if err != nil {
		return respondError(c, err)
	}

	doc, err := h.data.Get(c.UserContext(), resource, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "OK", doc)
}

// Create handles POST /data/:resource
func (h *DataHandler) Create(c *fiber.Ctx) error {
	resource, err := domain.ParseResource(c.Params("resource"))
	if err != nil {
		return respondError(c, err)
	}

	doc, err := parseDocument(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if resource == domain.ResourceHealthMetrics {
		if err := validation.HealthMetric(doc); err != nil {
			return respondError(c, err)
		}
	}

	created, err := h.data.Create(c.UserContext(), resource, doc)
	if err != nil {
		return respondError(c, err)
	}
	return response.Created(c, "Created", created)
}

// Update handles PUT /data/:resource/:id with partial update semantics
func (h *DataHandler) Update(c *fiber.Ctx) error {
	resource, err := domain.ParseResource(c.Params("resource"))
	if err != nil {
		return respondError(c, err)
	}

	doc, err := parseDocument(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if _, hasValue := doc["value"]; hasValue && resource == domain.ResourceHealthMetrics {
		if err := validation.HealthMetric(doc); err != nil {
			return respondError(c, err)
		}
	}

	updated, err := h.data.Update(c.UserContext(), resource, c.Params("id"), doc)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Updated", updated)
}

// Delete handles DELETE /data/:resource/:id
func (h *DataHandler) Delete(c *fiber.Ctx) error {
	resource, err := domain.ParseResource(c.Params("resource"))
	if err != nil {
		return respondError(c, err)
	}

	if err := h.data.Delete(c.UserContext(), resource, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Deleted", nil)
}

// GetProfile handles GET /profile
func (h *DataHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.data.GetProfile(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "OK", profile)
}

// UpdateProfile handles PUT /profile
func (h *DataHandler) UpdateProfile(c *fiber.Ctx) error {
	doc, err := parseDocument(c)
	if err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	profile, err := h.data.UpdateProfile(c.UserContext(), doc)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Profile updated", profile)
}

func parseDocument(c *fiber.Ctx) (domain.Document, error) {
	doc := domain.Document{}
	if err := c.BodyParser(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
