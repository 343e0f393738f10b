package handlers

import (
	"encoding/json"
	"mime/multipart"
	"path"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

var documentKinds = []string{services.DocCNICFront, services.DocCNICBack, services.DocSupporting}

type RequestHandler struct {
	requestService *services.RequestService
}

func NewRequestHandler(requestService *services.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// Submit accepts either a JSON body or a multipart form whose file parts are
// named after the document kinds.
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	var in services.SubmitInput
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return badBody()
		}
		files, err := submitFromForm(form, &in)
		defer closeAll(files)
		if err != nil {
			return err
		}
	} else {
		var req dto.SubmitRequest
		if err := c.BodyParser(&req); err != nil {
			return badBody()
		}
		in = services.SubmitInput{
			Type:    req.Type,
			Reason:  req.Reason,
			Amount:  req.Amount,
			Address: req.Address,
			Details: req.Details,
		}
	}

	created, err := h.requestService.Submit(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SubmitResponse{ID: created.ID, Status: created.Status})
}

func submitFromForm(form *multipart.Form, in *services.SubmitInput) ([]multipart.File, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	in.Type = value("type")
	in.Reason = value("reason")
	in.Address = value("address")
	if raw := strings.TrimSpace(value("amount")); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperr.Validation("amount", "must be a number")
		}
		in.Amount = &amount
	}
	if raw := strings.TrimSpace(value("details")); raw != "" {
		if !json.Valid([]byte(raw)) {
			return nil, apperr.Validation("details", "must be a JSON object")
		}
		in.Details = json.RawMessage(raw)
	}

	var opened []multipart.File
	for _, kind := range documentKinds {
		headers := form.File[kind]
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return opened, apperr.Validation(kind, "unreadable upload")
		}
		opened = append(opened, f)
		in.Documents = append(in.Documents, services.Document{
			Kind:        kind,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		})
	}
	return opened, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}

func listOptions(c *fiber.Ctx) services.ListOptions {
	return services.ListOptions{
		Status: models.RequestStatus(c.Query("status")),
		Type:   c.Query("type"),
		Limit:  c.QueryInt("limit", services.DefaultListLimit),
		Offset: c.QueryInt("offset", 0),
	}
}

func (h *RequestHandler) List(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	opts := listOptions(c)
	out, total, err := h.requestService.ListForRole(c.UserContext(), id, opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.RequestListResponse{Requests: out, Total: total, Limit: opts.Limit, Offset: opts.Offset})
}

func (h *RequestHandler) Search(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	opts := listOptions(c)
	out, total, err := h.requestService.SearchByCNIC(c.UserContext(), id, c.Query("cnic"), opts)
	if err != nil {
		return err
	}
	return c.JSON(dto.RequestListResponse{Requests: out, Total: total, Limit: opts.Limit, Offset: opts.Offset})
}

func (h *RequestHandler) Get(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	reqID, err := requestID(c)
	if err != nil {
		return err
	}
	req, err := h.requestService.Get(c.UserContext(), id, reqID)
	if err != nil {
		return err
	}
	return c.JSON(req)
}

func (h *RequestHandler) Document(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	reqID, err := requestID(c)
	if err != nil {
		return err
	}
	kind := c.Params("kind")
	rc, key, err := h.requestService.OpenDocument(c.UserContext(), id, reqID, kind)
	if err != nil {
		return err
	}

	c.Attachment(kind + path.Ext(key))
	return c.SendStream(rc)
}

func (h *RequestHandler) Transition(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	reqID, err := requestID(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	status := models.RequestStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if err := h.requestService.Transition(c.UserContext(), id, reqID, status, req.RejectionReason); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": reqID, "status": status})
}
