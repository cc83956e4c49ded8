package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"dataset-service/internal/models"
	"dataset-service/internal/services"
	"dataset-service/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type DatasetHandler struct {
	datasetService *services.DatasetService
}

func NewDatasetHandler(datasetService *services.DatasetService) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
	}
}

func (dh *DatasetHandler) Register(app *fiber.App) {
	protectedGr := app.Group("/datasets/protected/api/v1", CallerIdentity())
	protectedGr.Post("/", dh.CreateDataset)
	protectedGr.Get("/mine", dh.GetMyDatasets)
	protectedGr.Get("/:id", dh.GetDatasetByID)
	protectedGr.Put("/:id", dh.UpdateDataset)
	protectedGr.Delete("/:id", dh.DeleteDataset)

	publicGr := app.Group("/datasets/public/api/v1")
	publicGr.Get("/", dh.GetPublicDatasets)

	// The serve surface addressed by the generated snippets. All three
	// variants run the same handler, as any sub-path resolves to the one
	// stored collection.
	serveGr := app.Group("/serve")
	serveGr.Get("/:address", dh.ServeDataset)
	serveGr.Get("/:address/:sub", dh.ServeDataset)
	serveGr.Get("/:address/:sub/:index", dh.ServeDataset)
}

// ============================================================================
// CREATE
// ============================================================================

func (dh *DatasetHandler) CreateDataset(c fiber.Ctx) error {
	req, upload, err := bindCreateRequest(c)
	if err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	}

	dataset, err := dh.datasetService.CreateDataset(c.Context(), callerID(c), *req, upload)
	if err != nil {
		return datasetErrorResponse(c, "CREATION_FAILED", err)
	}

	return c.Status(http.StatusCreated).JSON(utils.CreateSuccessResponse(models.CreateDatasetResponse{
		Message: "Dataset created successfully",
		Dataset: dataset.Summary(),
	}))
}

// ============================================================================
// READ
// ============================================================================

func (dh *DatasetHandler) GetDatasetByID(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	dataset, err := dh.datasetService.GetDatasetByID(c.Context(), id)
	if err != nil {
		return datasetErrorResponse(c, "FETCH_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(dataset))
}

func (dh *DatasetHandler) GetMyDatasets(c fiber.Ctx) error {
	datasets, err := dh.datasetService.ListMyDatasets(c.Context(), callerID(c))
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(utils.CreateErrorResponse("FETCH_FAILED", err.Error()))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(datasets))
}

func (dh *DatasetHandler) GetPublicDatasets(c fiber.Ctx) error {
	datasets, err := dh.datasetService.ListPublicDatasets(c.Context())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(utils.CreateErrorResponse("FETCH_FAILED", err.Error()))
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(datasets))
}

// ServeDataset is the public read interface: positional addressing through
// the sub-path and index segments, equality filters through the query
// string. It returns the serve envelope directly, not the management
// wrapper, because this shape is what generated example snippets consume.
func (dh *DatasetHandler) ServeDataset(c fiber.Ctx) error {
	opts := services.QueryOptions{
		SubPath: c.Params("sub"),
		Index:   c.Params("index"),
		Filters: c.Queries(),
	}

	envelope, err := dh.datasetService.ServeDataset(c.Context(), c.Params("address"), opts)
	if err != nil {
		if errors.Is(err, models.ErrDatasetNotFound) {
			return c.Status(http.StatusNotFound).JSON(utils.CreateErrorResponse("NOT_FOUND", "API not found"))
		}
		slog.Error("serve dataset failed", "address", c.Params("address"), "error", err)
		return c.Status(http.StatusInternalServerError).JSON(utils.CreateErrorResponse("SERVER_ERROR", "Server error"))
	}

	return c.Status(http.StatusOK).JSON(envelope)
}

// ============================================================================
// UPDATE / DELETE
// ============================================================================

func (dh *DatasetHandler) UpdateDataset(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	req, upload, err := bindUpdateRequest(c)
	if err != nil {
		slog.Error("error parsing request", "error", err)
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("INVALID_REQUEST", "Invalid request body"))
	}

	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("VALIDATION_FAILED", err.Error()))
	}

	dataset, err := dh.datasetService.UpdateDataset(c.Context(), id, *req, upload)
	if err != nil {
		return datasetErrorResponse(c, "UPDATE_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(models.CreateDatasetResponse{
		Message: "Dataset updated successfully",
		Dataset: dataset.Summary(),
	}))
}

func (dh *DatasetHandler) DeleteDataset(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("INVALID_ID", "Invalid UUID format"))
	}

	if err := dh.datasetService.DeleteDataset(c.Context(), id); err != nil {
		return datasetErrorResponse(c, "DELETE_FAILED", err)
	}

	return c.Status(http.StatusOK).JSON(utils.CreateSuccessResponse(map[string]string{
		"message": "Dataset deleted successfully",
	}))
}

// ============================================================================
// REQUEST BINDING
// ============================================================================

// bindCreateRequest accepts either a multipart form (metadata fields plus
// an optional file) or a plain JSON body with an optional inline data
// payload.
func bindCreateRequest(c fiber.Ctx) (*models.CreateDatasetRequest, *models.UploadedFile, error) {
	if !isMultipart(c) {
		var req models.CreateDatasetRequest
		if err := c.Bind().Body(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	req := models.CreateDatasetRequest{
		DisplayName: c.FormValue("display_name"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		Version:     c.FormValue("version"),
		Visibility:  c.FormValue("visibility"),
	}
	if v := c.FormValue("parameters"); v != "" {
		req.Parameters = v
	}
	if v := c.FormValue("endpoints"); v != "" {
		req.Endpoints = v
	}
	if v := c.FormValue("data"); v != "" {
		req.Data = []byte(v)
	}

	upload, err := readUploadedFile(c)
	if err != nil {
		return nil, nil, err
	}
	return &req, upload, nil
}

func bindUpdateRequest(c fiber.Ctx) (*models.UpdateDatasetRequest, *models.UploadedFile, error) {
	if !isMultipart(c) {
		var req models.UpdateDatasetRequest
		if err := c.Bind().Body(&req); err != nil {
			return nil, nil, err
		}
		return &req, nil, nil
	}

	req := models.UpdateDatasetRequest{}
	if v := c.FormValue("display_name"); v != "" {
		req.DisplayName = &v
	}
	if v := c.FormValue("description"); v != "" {
		req.Description = &v
	}
	if v := c.FormValue("category"); v != "" {
		req.Category = &v
	}
	if v := c.FormValue("version"); v != "" {
		req.Version = &v
	}
	if v := c.FormValue("visibility"); v != "" {
		req.Visibility = &v
	}
	if v := c.FormValue("parameters"); v != "" {
		req.Parameters = v
	}
	if v := c.FormValue("endpoints"); v != "" {
		req.Endpoints = v
	}
	if v := c.FormValue("data"); v != "" {
		req.Data = []byte(v)
	}

	upload, err := readUploadedFile(c)
	if err != nil {
		return nil, nil, err
	}
	return &req, upload, nil
}

func isMultipart(c fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// readUploadedFile extracts the optional "file" part into memory. A form
// without a file part is fine; the inline data field covers that case.
func readUploadedFile(c fiber.Ctx) (*models.UploadedFile, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, nil
	}
	data, err := readMultipartFile(fileHeader)
	if err != nil {
		return nil, err
	}
	return &models.UploadedFile{
		Name: fileHeader.Filename,
		Data: data,
	}, nil
}

func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// datasetErrorResponse maps service errors onto status codes and error
// codes. Parse failures are the caller's to fix; an exhausted address
// space is a server-side condition the caller cannot retry away.
func datasetErrorResponse(c fiber.Ctx, fallbackCode string, err error) error {
	switch {
	case errors.Is(err, models.ErrDatasetNotFound):
		return c.Status(http.StatusNotFound).JSON(utils.CreateErrorResponse("NOT_FOUND", err.Error()))
	case errors.Is(err, models.ErrUnsupportedFormat):
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("UNSUPPORTED_FORMAT", err.Error()))
	case errors.Is(err, models.ErrMalformedInput):
		return c.Status(http.StatusBadRequest).JSON(utils.CreateErrorResponse("MALFORMED_INPUT", err.Error()))
	case errors.Is(err, models.ErrAddressExhausted):
		return c.Status(http.StatusInternalServerError).JSON(utils.CreateErrorResponse("ADDRESS_EXHAUSTED", err.Error()))
	default:
		slog.Error("dataset operation failed", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(utils.CreateErrorResponse(fallbackCode, err.Error()))
	}
}
