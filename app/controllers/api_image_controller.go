package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/morphlyhq/morphly/app/models"
	"github.com/morphlyhq/morphly/app/repository"
	"github.com/morphlyhq/morphly/internal/pkg/blobstore"
	"github.com/morphlyhq/morphly/internal/pkg/database"
	"github.com/morphlyhq/morphly/internal/pkg/ledger"
)

// imageRequest carries a transformation result to save or re-save. AuthorID
// identifies the acting user; the frontend resolves it from the session
// before calling us.
type imageRequest struct {
	Title              string          `json:"title"`
	TransformationType string          `json:"transformation_type"`
	PublicID           string          `json:"public_id"`
	SecureURL          string          `json:"secure_url"`
	TransformationURL  string          `json:"transformation_url"`
	Width              int             `json:"width"`
	Height             int             `json:"height"`
	AspectRatio        string          `json:"aspect_ratio"`
	Color              string          `json:"color"`
	Prompt             string          `json:"prompt"`
	Config             json.RawMessage `json:"config"`
	AuthorID           uint            `json:"author_id"`
	IsPrivate          bool            `json:"is_private"`
}

// HandleSaveImage persists a transformation result and debits the
// transformation fee. The debit belongs to the apply, not to the blob
// upload, so it happens here and only after the row is written.
func HandleSaveImage(c *fiber.Ctx) error {
	var req imageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if !models.ValidTransformationType(req.TransformationType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_transformation_type"})
	}
	if req.AuthorID == 0 || req.SecureURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	repos := repository.GetGlobalRepositories()
	if _, err := repos.User.GetByID(req.AuthorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "author_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "author_lookup_failed"})
	}

	image := imageFromRequest(&req)
	if err := repos.Image.Create(image); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image_save_failed"})
	}

	svc := ledger.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	balance, err := svc.ChargeFee(ctx, req.AuthorID, -ledger.TransformationFee)
	if err != nil {
		// The image row is saved; a failed debit must not be dropped silently.
		log.Errorf("[Images] Fee debit failed for user %d after saving image %d: %v", req.AuthorID, image.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "fee_debit_failed"})
	}
	invalidateBalanceCache(req.AuthorID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"image":          image,
		"credit_balance": balance,
	})
}

// HandleUpdateImage re-saves an existing transformation result. Only the
// owner may update; a re-save costs no additional credits.
func HandleUpdateImage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id"})
	}

	var req imageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	repos := repository.GetGlobalRepositories()
	image, err := repos.Image.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image_lookup_failed"})
	}
	if image.AuthorID != req.AuthorID {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not_image_owner"})
	}

	applyRequestToImage(image, &req)
	if err := repos.Image.Update(image); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image_update_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"image": image})
}

// HandleDeleteImage removes a saved result. The blob delete afterwards is
// best effort; the sweeper reclaims the blob if it fails.
func HandleDeleteImage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id"})
	}

	repos := repository.GetGlobalRepositories()
	image, err := repos.Image.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image_lookup_failed"})
	}

	if err := repos.Image.Delete(image.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image_delete_failed"})
	}

	if provider := blobstore.GetProvider(); provider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.BulkDelete(ctx, []string{image.PublicID}); err != nil {
			log.Errorf("[Images] Could not delete blob %s, sweeper will reclaim it: %v", image.PublicID, err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleGetImage returns a single saved result by id.
func HandleGetImage(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id"})
	}

	image, err := repository.GetGlobalRepositories().Image.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image_lookup_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"image": image})
}

// HandleListImages returns an author's saved results, newest first.
func HandleListImages(c *fiber.Ctx) error {
	authorID, err := strconv.ParseUint(c.Query("author_id"), 10, 32)
	if err != nil || authorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_author_id"})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 12)
	if perPage < 1 || perPage > 100 {
		perPage = 12
	}

	repos := repository.GetGlobalRepositories()
	images, err := repos.Image.GetByAuthorID(uint(authorID), (page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image_list_failed"})
	}
	total, err := repos.Image.CountByAuthorID(uint(authorID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image_count_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"images": images,
		"page":   page,
		"total":  total,
	})
}

func imageFromRequest(req *imageRequest) *models.Image {
	image := &models.Image{
		Title:              req.Title,
		TransformationType: req.TransformationType,
		PublicID:           req.PublicID,
		SecureURL:          req.SecureURL,
		TransformationURL:  req.TransformationURL,
		Width:              req.Width,
		Height:             req.Height,
		AspectRatio:        req.AspectRatio,
		Color:              req.Color,
		Prompt:             req.Prompt,
		AuthorID:           req.AuthorID,
		IsPrivate:          req.IsPrivate,
	}
	if len(req.Config) > 0 {
		cfg := models.JSON(req.Config)
		image.Config = &cfg
	}
	return image
}

func applyRequestToImage(image *models.Image, req *imageRequest) {
	image.Title = req.Title
	if models.ValidTransformationType(req.TransformationType) {
		image.TransformationType = req.TransformationType
	}
	if req.SecureURL != "" {
		image.SecureURL = req.SecureURL
	}
	image.TransformationURL = req.TransformationURL
	image.Width = req.Width
	image.Height = req.Height
	image.AspectRatio = req.AspectRatio
	image.Color = req.Color
	image.Prompt = req.Prompt
	image.IsPrivate = req.IsPrivate
	if len(req.Config) > 0 {
		cfg := models.JSON(req.Config)
		image.Config = &cfg
	}
}
