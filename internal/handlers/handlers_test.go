package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flower_shop/internal/audit"
	"flower_shop/internal/auth"
	"flower_shop/internal/cache"
	"flower_shop/internal/cart"
	"flower_shop/internal/catalog"
	"flower_shop/internal/checkout"
	"flower_shop/internal/config"
	"flower_shop/internal/database"
	"flower_shop/internal/handlers"
	"flower_shop/internal/middleware"
	"flower_shop/internal/models"
	"flower_shop/internal/repository"
	"flower_shop/internal/routes"
	"flower_shop/internal/services"
)

type env struct {
	t      *testing.T
	router *gin.Engine
	store  *repository.Store
	carts  *cache.MemoryCartStore

	rose   models.Product
	tulip  models.Product
	garden models.Category
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { database.CloseSQL(db) })

	store := repository.NewStore(db)
	carts := cache.NewMemoryCartStore()
	transactor := checkout.NewTransactor(store, carts)
	t.Cleanup(transactor.Wait)
	auditLog := audit.NewLogger(nil)
	t.Cleanup(auditLog.Wait)

	cfg := &config.Config{SessionSecret: "test-session", JWTSecret: "test-jwt"}
	tokens := auth.NewTokens(cfg.JWTSecret)
	uploads := t.TempDir()

	h := handlers.New(handlers.Deps{
		Catalog:    catalog.New(store, nil),
		Carts:      cart.NewManager(carts, store),
		CartEvents: carts,
		Checkout:   transactor,
		Auth:       auth.NewService(store),
		Tokens:     tokens,
		Orders:     store,
		Images:     services.NewImageStore(nil, "", "", false, uploads),
		Audit:      auditLog,
	})
	router := routes.New(h, routes.Options{
		Sessions:     middleware.NewCookieStore(cfg),
		Users:        store,
		Tokens:       tokens,
		UploadFolder: uploads,
	})

	e := &env{t: t, router: router, store: store, carts: carts}
	e.garden = models.Category{Name: "Garden"}
	require.NoError(t, db.Create(&e.garden).Error)
	e.rose = e.product("Rose", "500000", 10)
	e.tulip = e.product("Tulip", "350000", 10)
	return e
}

func (e *env) product(name, price string, stock int) models.Product {
	p := models.Product{
		Name: name, Price: decimal.RequireFromString(price), Stock: stock,
		CategoryID: e.garden.ID, Image: models.DefaultProductImage,
	}
	require.NoError(e.t, e.store.CreateProduct(context.Background(), &p))
	return p
}

func (e *env) user(username, email, password string, admin bool) *models.User {
	hash, err := auth.HashPassword(password)
	require.NoError(e.t, err)
	u := &models.User{Username: username, Email: email, Password: hash, IsAdmin: admin}
	require.NoError(e.t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *env) orderCount() int64 {
	n, err := e.store.CountOrders(context.Background())
	require.NoError(e.t, err)
	return n
}

// browser keeps the session cookie between requests.
type browser struct {
	e      *env
	cookie *http.Cookie
}

func (e *env) browser() *browser {
	return &browser{e: e}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.e.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.SessionName {
			b.cookie = ck
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.send(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) getJSON(path string, out any) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	w := b.send(req)
	if out != nil {
		require.NoError(b.e.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

func (b *browser) postForm(path string, form url.Values, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return b.send(req)
}

func (b *browser) postJSON(path string, body any) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(b.e.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return b.send(req)
}

type sessionBody struct {
	Actor     auth.Actor                `json:"actor"`
	CartCount int                       `json:"cart_count"`
	Flashes   []middleware.FlashMessage `json:"flashes"`
}

func (b *browser) session() sessionBody {
	var s sessionBody
	b.getJSON("/api/session", &s)
	return s
}

func (b *browser) login(email, password string) {
	w := b.postForm("/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(b.e.t, http.StatusSeeOther, w.Code)
	require.Equal(b.e.t, "/", w.Header().Get("Location"))
}

func path(format string, id uint) string {
	return strings.Replace(format, ":id", strconv.FormatUint(uint64(id), 10), 1)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	w := e.browser().get("/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestProducts(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	var list struct {
		Products []struct {
			ID       uint   `json:"id"`
			ImageURL string `json:"image_url"`
		} `json:"products"`
	}
	b.getJSON("/api/products?q=ROS", &list)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "/static/uploads/default.jpg", list.Products[0].ImageURL)

	var detail struct {
		Product struct{ Name string } `json:"product"`
		Related []struct{ ID uint }   `json:"related"`
	}
	w := b.getJSON(path("/api/products/:id", e.rose.ID), &detail)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rose", detail.Product.Name)
	require.Len(t, detail.Related, 1)
	assert.Equal(t, e.tulip.ID, detail.Related[0].ID)

	assert.Equal(t, http.StatusNotFound, b.get("/api/products/999").Code)
	assert.Equal(t, http.StatusBadRequest, b.get("/api/products?category=abc").Code)
}

func TestAddToCart_RedirectsBackWithFlash(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	req := httptest.NewRequest(http.MethodPost, path("/cart/add/:id", e.rose.ID), nil)
	req.Header.Set("Referer", "/products/1")
	w := b.send(req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/products/1", w.Header().Get("Location"))

	w = b.postForm(path("/cart/add/:id", e.rose.ID), url.Values{"quantity": {"3"}})
	assert.Equal(t, "/", w.Header().Get("Location"))

	s := b.session()
	assert.Equal(t, 4, s.CartCount)
	require.NotEmpty(t, s.Flashes)
	assert.Equal(t, "success", s.Flashes[0].Category)

	assert.Empty(t, b.session().Flashes)
}

func TestAddToCart_RejectsNegativeQuantity(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	w := b.postJSON(path("/cart/add/:id", e.rose.ID), gin.H{"quantity": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, b.session().CartCount)
}

func TestAddToCart_ExplicitZeroIsRejected(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	w := b.postForm(path("/cart/add/:id", e.rose.ID), url.Values{"quantity": {"0"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	s := b.session()
	assert.Zero(t, s.CartCount)
	require.NotEmpty(t, s.Flashes)
	assert.Equal(t, "danger", s.Flashes[0].Category)

	w = b.postJSON(path("/cart/add/:id", e.rose.ID), gin.H{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, b.session().CartCount)
}

func TestAddToCart_BlankQuantityAddsOne(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	b.postForm(path("/cart/add/:id", e.rose.ID), url.Values{"quantity": {""}})
	assert.Equal(t, 1, b.session().CartCount)
}

func TestAddToCart_LineCannotOverflow(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	w := b.postJSON(path("/cart/add/:id", e.rose.ID), gin.H{"quantity": math.MaxInt})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = b.postJSON(path("/cart/add/:id", e.rose.ID), gin.H{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Items []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
	}
	b.getJSON("/api/cart", &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, math.MaxInt, body.Items[0].Quantity)

	w = b.postForm("/checkout", url.Values{"name": {"Lan"}, "phone": {"1"}, "address": {"x"}})
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Zero(t, e.orderCount())
}

func TestCartIsolatedPerSession(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.browser(), e.browser()

	alice.postForm(path("/cart/add/:id", e.rose.ID), url.Values{"quantity": {"2"}})
	assert.Equal(t, 2, alice.session().CartCount)
	assert.Zero(t, bob.session().CartCount)
}

func TestUpdateCart(t *testing.T) {
	e := newEnv(t)
	b := e.browser()
	b.postForm(path("/cart/add/:id", e.rose.ID), url.Values{"quantity": {"2"}})
	b.postForm(path("/cart/add/:id", e.tulip.ID), url.Values{"quantity": {"1"}})

	w := b.postForm("/cart", url.Values{
		path("qty_:id", e.rose.ID):  {"5"},
		path("qty_:id", e.tulip.ID): {"0"},
		"qty_999":                   {"4"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cart", w.Header().Get("Location"))

	var body struct {
		Items []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
		Total string `json:"total"`
	}
	b.getJSON("/api/cart", &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 5, body.Items[0].Quantity)
	assert.Equal(t, "2500000.00", body.Total)

	w = b.postForm("/cart", url.Values{"action": {"checkout"}})
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Equal(t, 5, b.session().CartCount)
}

func TestCheckout_EmptyCartRedirectsHome(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	w := b.postForm("/checkout", url.Values{"name": {"Lan"}, "phone": {"1"}, "address": {"x"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Zero(t, e.orderCount())

	w = b.get("/api/checkout")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestCheckout_IgnoresClientTotal(t *testing.T) {
	e := newEnv(t)
	b := e.browser()
	b.postForm(path("/cart/add/:id", e.rose.ID), url.Values{"quantity": {"2"}})
	b.postForm(path("/cart/add/:id", e.tulip.ID), url.Values{"quantity": {"1"}})

	w := b.postForm("/checkout", url.Values{
		"name":        {"Lan"},
		"phone":       {"0123456789"},
		"address":     {"1 Hoa St"},
		"total":       {"1"},
		"total_price": {"1"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/", w.Header().Get("Location"))

	orders, err := e.store.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, decimal.NewFromInt(1350000).Equal(orders[0].TotalPrice), orders[0].TotalPrice.String())
	assert.Len(t, orders[0].Items, 2)
	assert.Nil(t, orders[0].UserID)

	s := b.session()
	assert.Zero(t, s.CartCount)
	require.NotEmpty(t, s.Flashes)
	assert.Equal(t, "success", s.Flashes[0].Category)

	p, err := e.store.GetProduct(context.Background(), e.rose.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
}

func TestCheckout_JSONClientGetsOrder(t *testing.T) {
	e := newEnv(t)
	b := e.browser()
	b.postForm(path("/cart/add/:id", e.rose.ID), url.Values{})

	w := b.postJSON("/checkout", gin.H{"name": "Lan", "phone": "1", "address": "x", "total": 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, decimal.NewFromInt(500000).Equal(body.Order.TotalPrice))
}

func TestCheckout_MissingFieldsKeepCart(t *testing.T) {
	e := newEnv(t)
	b := e.browser()
	b.postForm(path("/cart/add/:id", e.rose.ID), url.Values{})

	w := b.postForm("/checkout", url.Values{"name": {"Lan"}, "phone": {"  "}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Zero(t, e.orderCount())
	assert.Equal(t, 1, b.session().CartCount)
}

func TestCheckout_InsufficientStockKeepsCart(t *testing.T) {
	e := newEnv(t)
	b := e.browser()
	b.postForm(path("/cart/add/:id", e.rose.ID), url.Values{"quantity": {"11"}})

	w := b.postForm("/checkout", url.Values{"name": {"Lan"}, "phone": {"1"}, "address": {"x"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/checkout", w.Header().Get("Location"))
	assert.Zero(t, e.orderCount())

	s := b.session()
	assert.Equal(t, 11, s.CartCount)
	require.NotEmpty(t, s.Flashes)
	assert.Contains(t, s.Flashes[0].Message, "Rose")
}

func TestCheckout_PrefillAndOwnership(t *testing.T) {
	e := newEnv(t)
	u := e.user("lan", "lan@example.com", "secret1", false)
	b := e.browser()
	b.postForm(path("/cart/add/:id", e.tulip.ID), url.Values{})
	b.login("lan@example.com", "secret1")
	assert.Equal(t, 1, b.session().CartCount)

	var form struct {
		Form map[string]string `json:"form"`
	}
	b.getJSON("/api/checkout", &form)
	assert.Equal(t, "lan", form.Form["name"])

	b.postForm("/checkout", url.Values{"name": {"Lan"}, "phone": {"1"}, "address": {"x"}})

	var mine struct {
		Orders []models.Order `json:"orders"`
	}
	b.getJSON("/api/orders", &mine)
	require.Len(t, mine.Orders, 1)
	require.NotNil(t, mine.Orders[0].UserID)
	assert.Equal(t, u.ID, *mine.Orders[0].UserID)
}

func TestRegister_DuplicateEmailRedirectsToLogin(t *testing.T) {
	e := newEnv(t)
	e.user("lan", "lan@example.com", "secret1", false)
	b := e.browser()

	w := b.postForm("/register", url.Values{
		"username": {"someone"}, "email": {"lan@example.com"},
		"password": {"secret2"}, "confirm_password": {"secret2"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	n, err := e.store.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	s := b.session()
	require.NotEmpty(t, s.Flashes)
	assert.Equal(t, "warning", s.Flashes[0].Category)
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	w := b.postForm("/register", url.Values{
		"username": {"ab"}, "email": {"not-an-email"},
		"password": {"123"}, "confirm_password": {"321"},
	})
	assert.Equal(t, "/register", w.Header().Get("Location"))

	w = b.postForm("/register", url.Values{
		"username": {"newbie"}, "email": {"newbie@example.com"},
		"password": {"secret1"}, "confirm_password": {"secret1"},
	})
	assert.Equal(t, "/login", w.Header().Get("Location"))
	_, err := e.store.FindUserByEmail(context.Background(), "newbie@example.com")
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.user("lan", "lan@example.com", "secret1", false)
	b := e.browser()

	w := b.postJSON("/login", gin.H{"email": "lan@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = b.postJSON("/login", gin.H{"email": "lan@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)

	api := e.browser()
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	assert.Equal(t, http.StatusOK, api.send(req).Code)

	assert.Equal(t, "lan", b.session().Actor.Username)
	b.get("/logout")
	assert.False(t, b.session().Actor.Authenticated())
}

func TestOrdersRequireLogin(t *testing.T) {
	e := newEnv(t)
	w := e.browser().get("/api/orders")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func multipartProduct(t *testing.T, fields map[string]string, image []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "spring mix.png")
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAdmin(t *testing.T) {
	e := newEnv(t)
	e.user("lan", "lan@example.com", "secret1", false)
	e.user("boss", "admin@example.com", "admin123", true)

	guest := e.browser()
	assert.Equal(t, "/login", guest.get("/api/admin").Header().Get("Location"))

	customer := e.browser()
	customer.login("lan@example.com", "secret1")
	w := customer.get("/api/admin")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	admin := e.browser()
	admin.login("admin@example.com", "admin123")

	body, contentType := multipartProduct(t, map[string]string{
		"name": "Spring Mix", "price": "199000", "category": path(":id", e.garden.ID),
		"stock": "7", "description": "Seasonal",
	}, []byte("png"))
	req := httptest.NewRequest(http.MethodPost, "/admin/product/new", body)
	req.Header.Set("Content-Type", contentType)
	w = admin.send(req)
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/admin", w.Header().Get("Location"))

	var dash struct {
		Products []struct {
			Name     string `json:"name"`
			Stock    int    `json:"stock"`
			ImageURL string `json:"image_url"`
		} `json:"products"`
	}
	admin.getJSON("/api/admin", &dash)
	require.Len(t, dash.Products, 3)
	created := dash.Products[2]
	assert.Equal(t, "Spring Mix", created.Name)
	assert.Equal(t, 7, created.Stock)
	assert.True(t, strings.HasSuffix(created.ImageURL, "_spring_mix.png"), created.ImageURL)

	assert.Equal(t, http.StatusOK, admin.get(created.ImageURL).Code)

	body, contentType = multipartProduct(t, map[string]string{"name": "Ghost", "price": "1", "category": "999"}, nil)
	req = httptest.NewRequest(http.MethodPost, "/admin/product/new", body)
	req.Header.Set("Content-Type", contentType)
	w = admin.send(req)
	assert.Equal(t, "/admin/product/new", w.Header().Get("Location"))
}
