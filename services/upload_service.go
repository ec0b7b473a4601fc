package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/repository"
	"github.com/akinalp/pastane/ws"
)

// UploadURLPrefix, yüklenen görsellerin sunulduğu yol.
const UploadURLPrefix = "/uploads/"

// allowedImageTypes, içerikten tespit edilen MIME → dosya uzantısı.
// İstemcinin gönderdiği Content-Type'a güvenilmez.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageStore, ürün görsellerini upload dizinine yazar ve siler.
type ImageStore struct {
	dir     string
	maxSize int64
	log     *zap.Logger
}

func NewImageStore(dir string, maxSize int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ImageStore{dir: dir, maxSize: maxSize, log: logger.Named("upload")}, nil
}

// Save, görseli {uuid}.{ext} adıyla kaydeder ve URL'ini döner.
func (s *ImageStore) Save(r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", pkg.ErrBadRequest)
	}

	mime := http.DetectContentType(head)
	ext, ok := allowedImageTypes[mime]
	if !ok {
		return "", fmt.Errorf("%w: file type not allowed: %s", pkg.ErrBadRequest, mime)
	}

	name := uuid.NewString() + ext
	dest := filepath.Join(s.dir, name)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	// maxSize+1 byte okunabiliyorsa dosya sınırı aşmıştır
	written, err := io.Copy(f, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), s.maxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if written > s.maxSize {
		os.Remove(dest)
		return "", fmt.Errorf("%w: file too large (max %dMB)", pkg.ErrBadRequest, s.maxSize/(1024*1024))
	}

	return UploadURLPrefix + name, nil
}

// Remove, URL'i bu store'a ait görseli siler. Dış URL'ler ve olmayan
// dosyalar sessizce atlanır.
func (s *ImageStore) Remove(url string) {
	if !strings.HasPrefix(url, UploadURLPrefix) {
		return
	}
	name := filepath.Base(strings.TrimPrefix(url, UploadURLPrefix))
	if name == "." || name == "/" || name == ".." {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		s.log.Warn("failed to remove image", zap.String("file", name), zap.Error(err))
	}
}

// UploadService, ürün görseli yükleme.
type UploadService interface {
	// ProductImage, görseli kaydeder, ürüne bağlar ve varsa eski görseli siler.
	ProductImage(ctx context.Context, productID string, file io.Reader) (*models.Product, error)
	RemoveProductImage(ctx context.Context, productID string) (*models.Product, error)
}

type uploadService struct {
	productRepo repository.ProductRepository
	images      *ImageStore
	catalog     *CatalogCache
	hub         ws.EventPublisher
}

func NewUploadService(
	productRepo repository.ProductRepository,
	images *ImageStore,
	catalog *CatalogCache,
	hub ws.EventPublisher,
) UploadService {
	return &uploadService{
		productRepo: productRepo,
		images:      images,
		catalog:     catalog,
		hub:         hub,
	}
}

func (s *uploadService) ProductImage(ctx context.Context, productID string, file io.Reader) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Save(file)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.UpdateImage(ctx, productID, &url); err != nil {
		s.images.Remove(url)
		return nil, err
	}
	if product.ImageURL != nil {
		s.images.Remove(*product.ImageURL)
	}

	return s.changed(ctx, productID)
}

func (s *uploadService) RemoveProductImage(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.ImageURL == nil {
		return product, nil
	}
	if err := s.productRepo.UpdateImage(ctx, productID, nil); err != nil {
		return nil, err
	}
	s.images.Remove(*product.ImageURL)

	return s.changed(ctx, productID)
}

func (s *uploadService) changed(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	s.catalog.Invalidate()
	s.hub.BroadcastToAll(ws.Event{Op: ws.OpProductUpdate, Data: product})
	return product, nil
}
