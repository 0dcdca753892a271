package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/arcanum-labs/magicshop/internal/cache"
	"github.com/arcanum-labs/magicshop/internal/domain"
	"github.com/arcanum-labs/magicshop/internal/imaging"
	"github.com/arcanum-labs/magicshop/internal/observability"
	"github.com/arcanum-labs/magicshop/internal/storage"
)

// Backend is the generative capability surface the pipeline drives.
// *genai.Client satisfies it.
type Backend interface {
	GenerateDescription(ctx context.Context, oneLine string) (string, error)
	GenerateImagePrompt(ctx context.Context, description string) (string, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt, dstPath string) (string, error)
}

const (
	jpegQuality     = 85
	listingCacheKey = "products:list"
)

// Service orchestrates product creation and serves product reads.
//
// Creation is a strict sequence: description, image prompt, metadata,
// provisional record, image generation, conversion, commit. Any failure
// rolls back the open transaction; image files already written to disk
// are left behind, with the committed .png kept as a source-of-truth
// backup next to the served .jpg.
type Service struct {
	db        *sql.DB
	backend   Backend
	extractor *Extractor
	listings  cache.Client
	cacheTTL  time.Duration
	imageDir  string
	logger    *observability.Logger
}

// NewService creates the catalog service and ensures the image
// directory exists. listings may be nil to disable the listing cache.
func NewService(db *sql.DB, backend Backend, listings cache.Client, cacheTTL time.Duration, imageDir string, logger *observability.Logger) (*Service, error) {
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}

	return &Service{
		db:        db,
		backend:   backend,
		extractor: NewExtractor(backend, logger),
		listings:  listings,
		cacheTTL:  cacheTTL,
		imageDir:  imageDir,
		logger:    logger.WithComponent("catalog"),
	}, nil
}

// CreateFromIdea runs the full creation pipeline for a one-line product
// idea and returns the committed record. No step is retried; every
// failure is terminal for this invocation.
func (s *Service) CreateFromIdea(ctx context.Context, oneLine string) (*storage.Product, error) {
	log := s.logger.WithRun(uuid.NewString())
	log.Info().Str("idea", oneLine).Msg("Creating product")

	description, err := s.backend.GenerateDescription(ctx, oneLine)
	if err != nil {
		return nil, classifyCreationError(err)
	}

	imagePrompt, err := s.backend.GenerateImagePrompt(ctx, description)
	if err != nil {
		return nil, classifyCreationError(err)
	}

	meta, err := s.extractor.Extract(ctx, description)
	if err != nil {
		return nil, classifyCreationError(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.UnclassifiedError("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Provisional insert: the row exists only inside the transaction,
	// but its generated id is already usable for filenames.
	txRepo := storage.NewProductRepository(tx)
	product := &storage.Product{
		Name:        meta.Name,
		Description: description,
		ImagePath:   "",
		Price:       meta.Price,
		Category:    meta.Category,
		Tags:        meta.Tags,
		Rarity:      meta.Rarity,
	}
	if err := txRepo.Insert(ctx, product); err != nil {
		return nil, classifyCreationError(err)
	}
	log.Info().Int64("id", product.ID).Msg("Reserved product record")

	stamp := time.Now().UTC().Format("20060102_150405")
	pngPath := filepath.Join(s.imageDir, fmt.Sprintf("%d_%s.png", product.ID, stamp))
	jpgName := fmt.Sprintf("%d_%s.jpg", product.ID, stamp)
	jpgPath := filepath.Join(s.imageDir, jpgName)

	if _, err := s.backend.GenerateImage(ctx, imagePrompt, pngPath); err != nil {
		return nil, classifyCreationError(err)
	}

	if _, err := imaging.Convert(pngPath, jpgPath, jpegQuality); err != nil {
		return nil, classifyCreationError(err)
	}

	webPath := "/images/" + jpgName
	if err := txRepo.SetImagePath(ctx, product.ID, webPath); err != nil {
		return nil, classifyCreationError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.UnclassifiedError("commit product", err)
	}
	committed = true

	s.invalidateListing(ctx)

	fresh, err := storage.NewProductRepository(s.db).GetByID(ctx, product.ID)
	if err != nil {
		return nil, domain.UnclassifiedError("reload committed product", err)
	}

	log.Info().Int64("id", fresh.ID).Str("name", fresh.Name).Msg("Product created")
	return fresh, nil
}

// ListProducts returns every committed product, newest first. The
// result is served from the listing cache when fresh.
func (s *Service) ListProducts(ctx context.Context) ([]*storage.Product, error) {
	if s.listings != nil {
		if data, err := s.listings.Get(ctx, listingCacheKey); err == nil {
			var products []*storage.Product
			if err := json.Unmarshal(data, &products); err == nil {
				return products, nil
			}
			// A corrupt entry is dropped and rebuilt from storage.
			_ = s.listings.Delete(ctx, listingCacheKey)
		}
	}

	products, err := storage.NewProductRepository(s.db).ListAll(ctx)
	if err != nil {
		return nil, domain.RetrievalError("failed to retrieve products", err)
	}

	if s.listings != nil {
		if data, err := json.Marshal(products); err == nil {
			_ = s.listings.Set(ctx, listingCacheKey, data, s.cacheTTL)
		}
	}

	return products, nil
}

// GetProduct returns the product with the given id, or (nil, nil) when
// no such product exists.
func (s *Service) GetProduct(ctx context.Context, id int64) (*storage.Product, error) {
	product, err := storage.NewProductRepository(s.db).GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.RetrievalError(fmt.Sprintf("failed to retrieve product %d", id), err)
	}
	return product, nil
}

func (s *Service) invalidateListing(ctx context.Context) {
	if s.listings != nil {
		if err := s.listings.Delete(ctx, listingCacheKey); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to invalidate listing cache")
		}
	}
}

// classifyCreationError folds component errors into the two
// caller-facing umbrella kinds.
func classifyCreationError(err error) error {
	switch domain.KindOf(err) {
	case domain.KindBackend, domain.KindExtraction:
		return domain.AIGenerationError("AI generation failed", err)
	case domain.KindConversion:
		return domain.ImageConversionError("image conversion failed", err)
	default:
		return domain.UnclassifiedError("product creation failed", err)
	}
}
