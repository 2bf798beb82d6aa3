package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaargah/go-bazaar-backend/internal/config"
	"github.com/bazaargah/go-bazaar-backend/internal/domain"
	"github.com/bazaargah/go-bazaar-backend/internal/http/middleware"
	"github.com/bazaargah/go-bazaar-backend/internal/repo"
)

// fakeBlobs satisfies services.BlobStore without a MinIO server.
type fakeBlobs struct{}

func (fakeBlobs) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://blobs.test/" + key, nil
}
func (fakeBlobs) Remove(context.Context, string) error { return nil }

// newTestDB opens a file-backed sqlite in a temp dir and migrates the full
// schema. A shared in-memory DSN would leak rows between parallel tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newMultipart writes a multipart body with one "images" part per file and
// returns the Content-Type to send.
func newMultipart(t *testing.T, buf *bytes.Buffer, files map[string][]byte) string {
	t.Helper()
	w := multipart.NewWriter(buf)
	for name, data := range files {
		fw, err := w.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return w.FormDataContentType()
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		MaxUploadBytes: 5 << 20,
		RateRPS:        1000,
		RateBurst:      1000,
		IdempotencyTTL: time.Hour,
		Security:       config.SecurityConfig{},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), fakeBlobs{}, testConfig())

	// /health works
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// No origins configured: allow-all branch sets ACAO "*".
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404 envelope
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	RegisterRoutes(r, newTestDB(t), fakeBlobs{}, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRequireUser_GatesAuthenticatedSurface(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), fakeBlobs{}, testConfig())

	// Without X-User-ID the authenticated surface answers 401.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me/listings", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous GET /me/listings = %d; want 401", w.Code)
	}

	// Public browse stays open.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous GET /categories = %d; want 200", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// Full round-trip of the marketplace lifecycle through the real router:
// submit → idempotent replay → moderate → search → public detail with view
// counting.
func TestRouter_ListingLifecycle_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, fakeBlobs{}, testConfig())

	const sellerID = "seller-1"
	const adminID = "admin-1"

	cat := domain.Category{ID: uuid.NewString(), Name: "وسایل نقلیه", Slug: "vehicles"}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	if err := db.Create(&domain.UserRole{ID: uuid.NewString(), UserID: adminID, Role: domain.RoleAdmin}).Error; err != nil {
		t.Fatalf("seed admin role: %v", err)
	}
	if err := db.Create(&domain.Profile{ID: sellerID, FullName: "علی رضایی", Phone: "09121112233", City: "تهران"}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	draft := map[string]any{
		"title":       "دوچرخه کوهستان ۲۶ اینچ در حد نو",
		"description": "دوچرخه کوهستان با بدنه آلومینیومی، دنده شیمانو و ترمز دیسکی، بسیار تمیز و کم‌کارکرد، مناسب کوهستان و شهر.",
		"price":       2500000,
		"city":        "تهران",
		"phone":       "09123456789",
		"category_id": cat.ID,
		"condition":   "like_new",
	}
	body, _ := json.Marshal(draft)

	// --- submit with an idempotency key ---
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", sellerID)
	req.Header.Set(middleware.HeaderIdempotencyKey, "submit-1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /listings = %d body=%s", w.Code, w.Body.String())
	}
	var created domain.Listing
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.Status != domain.StatusPending || created.Slug == "" {
		t.Fatalf("unexpected created listing: %+v", created)
	}

	// --- replay: same key returns the same listing with 200 ---
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/listings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", sellerID)
	req.Header.Set(middleware.HeaderIdempotencyKey, "submit-1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("replay = %d body=%s", w.Code, w.Body.String())
	}
	var replayed domain.Listing
	if err := json.Unmarshal(w.Body.Bytes(), &replayed); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if replayed.ID != created.ID {
		t.Fatalf("replay returned a different listing: %s vs %s", replayed.ID, created.ID)
	}

	// --- not yet visible in public search ---
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings?search=دوچرخه", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("search before approval = %d", w.Code)
	}
	var page struct {
		Items []domain.Listing `json:"items"`
		Total int64            `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode search page: %v", err)
	}
	if page.Total != 0 {
		t.Fatalf("pending listing leaked into search: %+v", page)
	}

	// --- non-admin cannot approve ---
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/listings/"+created.ID+"/approve", nil)
	req.Header.Set("X-User-ID", sellerID)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin approve = %d; want 403", w.Code)
	}

	// --- admin approves ---
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/listings/"+created.ID+"/approve", nil)
	req.Header.Set("X-User-ID", adminID)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin approve = %d body=%s", w.Code, w.Body.String())
	}

	// --- now searchable ---
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings?search=دوچرخه&city=تهران", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode search page: %v", err)
	}
	if page.Total != 1 || len(page.Items) != 1 || page.Items[0].ID != created.ID {
		t.Fatalf("approved listing missing from search: %+v", page)
	}

	// --- public detail by slug, seller card attached, views counted ---
	const reads = 5
	var detail struct {
		Listing domain.Listing  `json:"listing"`
		Seller  *domain.Profile `json:"seller"`
	}
	for i := 0; i < reads; i++ {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+created.Slug, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET detail #%d = %d", i, w.Code)
		}
		if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
			t.Fatalf("decode detail: %v", err)
		}
	}
	if detail.Seller == nil || detail.Seller.FullName != "علی رضایی" {
		t.Fatalf("expected seller card on detail, got %+v", detail.Seller)
	}
	var stored domain.Listing
	if err := db.First(&stored, "id = ?", created.ID).Error; err != nil {
		t.Fatalf("load stored listing: %v", err)
	}
	if stored.ViewsCount != reads {
		t.Fatalf("views_count = %d; want %d", stored.ViewsCount, reads)
	}

	// --- owner cannot delete once approved ---
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/listings/"+created.ID, nil)
	req.Header.Set("X-User-ID", sellerID)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("delete approved = %d; want 409", w.Code)
	}

	// --- owner dashboard with ETag revalidation ---
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me/listings", nil)
	req.Header.Set("X-User-ID", sellerID)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /me/listings = %d", w.Code)
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag on dashboard response")
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/me/listings", nil)
	req.Header.Set("X-User-ID", sellerID)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Fatalf("revalidation = %d; want 304", w.Code)
	}

	// --- admin stats reflect the data ---
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	req.Header.Set("X-User-ID", adminID)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /admin/stats = %d", w.Code)
	}
	var stats struct {
		TotalListings    int64 `json:"total_listings"`
		ApprovedListings int64 `json:"approved_listings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalListings != 1 || stats.ApprovedListings != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRouter_ImageAttachment_EndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	db := newTestDB(t)
	RegisterRoutes(r, db, fakeBlobs{}, testConfig())

	const sellerID = "seller-img"
	cat := domain.Category{ID: uuid.NewString(), Name: "لوازم خانگی", Slug: "home"}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	listing := domain.Listing{
		ID: uuid.NewString(), UserID: sellerID, CategoryID: cat.ID,
		Title: "یخچال فریزر دوقلو تمیز", Description: "desc", Price: 100,
		City: "تهران", Phone: "09121234567", Condition: domain.ConditionGood,
		Status: domain.StatusPending, Slug: "fridge-" + uuid.NewString()[:8],
	}
	if err := db.Create(&listing).Error; err != nil {
		t.Fatalf("seed listing: %v", err)
	}

	var buf bytes.Buffer
	mw := newMultipart(t, &buf, map[string][]byte{
		"one.jpg": []byte("jpeg-bytes-1"),
		"two.png": []byte("png-bytes-2"),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listing.ID+"/images", &buf)
	req.Header.Set("Content-Type", mw)
	req.Header.Set("X-User-ID", sellerID)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("attach = %d body=%s", w.Code, w.Body.String())
	}
	var res struct {
		Attached int `json:"attached"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode attach result: %v", err)
	}
	if res.Attached != 2 {
		t.Fatalf("attached = %d; want 2", res.Attached)
	}

	var n int64
	if err := db.Model(&domain.ListingImage{}).Where("listing_id = ?", listing.ID).Count(&n).Error; err != nil {
		t.Fatalf("count images: %v", err)
	}
	if n != 2 {
		t.Fatalf("stored image rows = %d; want 2", n)
	}

	// A stranger gets 403.
	buf.Reset()
	mw = newMultipart(t, &buf, map[string][]byte{"x.jpg": []byte("zzz")})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listing.ID+"/images", &buf)
	req.Header.Set("Content-Type", mw)
	req.Header.Set("X-User-ID", "someone-else")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("stranger attach = %d; want 403", w.Code)
	}
}
