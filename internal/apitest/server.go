// Package apitest runs an in-process stand-in for the remote expense API.
// Data lives in memory and is scoped per user; tokens are HS256 JWTs.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"expensedash/internal/core"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const emailKey = "email"

type account struct {
	fullName     string
	email        string
	passwordHash []byte
}

type failure struct {
	status  int
	message string
}

type Server struct {
	mu       sync.Mutex
	secret   []byte
	now      func() time.Time
	accounts map[string]account
	expenses map[string][]core.Expense
	failures map[string]failure
	engine   *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
}

func New() *Server {
	s := &Server{
		secret:   []byte(uuid.NewString()),
		now:      time.Now,
		accounts: map[string]account{},
		expenses: map[string][]core.Expense{},
		failures: map[string]failure{},
	}
	s.engine = s.routes()
	return s
}

// Serve starts s on a loopback listener that is closed when tb finishes.
func Serve(tb testing.TB) (*Server, string) {
	tb.Helper()
	s := New()
	ts := httptest.NewServer(s.Handler())
	tb.Cleanup(ts.Close)
	return s, ts.URL
}

func (s *Server) Handler() http.Handler { return s.engine }

// Fail makes every request to the route (method plus gin path pattern,
// e.g. "GET /api/Expense/trend") answer with status until cleared.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = map[string]failure{}
}

// Expenses returns a copy of what the server holds for email.
func (s *Server) Expenses(email string) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses[email]...)
}

// Seed stores expenses for email, assigning ids where missing.
func (s *Server) Seed(email string, list ...core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range list {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		s.expenses[email] = append(s.expenses[email], e)
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.injectFailures)

	auth := r.Group("/api/Auth")
	auth.POST("/register", s.register)
	auth.POST("/login", s.login)

	exp := r.Group("/api/Expense", s.requireToken)
	exp.POST("/create", s.createExpense)
	exp.PUT("/update", s.updateExpense)
	exp.GET("/all", s.listExpenses)
	exp.GET("/summary/category", s.categorySummary)
	exp.POST("/filter", s.filterExpenses)
	exp.GET("/trend", s.trend)
	exp.GET("/:id", s.getExpense)
	exp.DELETE("/:id", s.deleteExpense)
	return r
}

func (s *Server) injectFailures(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.failures[c.Request.Method+" "+c.FullPath()]
	s.mu.Unlock()
	if ok {
		c.AbortWithStatusJSON(f.status, gin.H{"message": f.message, "success": false})
		return
	}
	c.Next()
}

func (s *Server) register(c *gin.Context) {
	var req core.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAuthError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.EmailAddress))
	if email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" {
		respondAuthError(c, http.StatusBadRequest, "Full name, email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		respondAuthError(c, http.StatusInternalServerError, "Could not hash password")
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[email]; exists {
		s.mu.Unlock()
		respondAuthError(c, http.StatusBadRequest, "Email already exists")
		return
	}
	acc := account{fullName: req.FullName, email: email, passwordHash: hash}
	s.accounts[email] = acc
	s.mu.Unlock()

	s.respondAuth(c, "Registration successful", acc)
}

func (s *Server) login(c *gin.Context) {
	var req core.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondAuthError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	acc, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		respondAuthError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.respondAuth(c, "Login successful", acc)
}

func (s *Server) respondAuth(c *gin.Context, message string, acc account) {
	token, err := s.issueToken(acc.email)
	if err != nil {
		respondAuthError(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"success": true,
		"data": core.AuthData{
			FullName: acc.fullName,
			Email:    acc.email,
			Token:    token,
		},
	})
}

func respondAuthError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message, "success": false})
}

func (s *Server) issueToken(email string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing bearer token"})
		return
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
		return
	}
	c.Set(emailKey, claims.Subject)
	c.Next()
}

func validateBody(title string, amount float64, cat core.Category, date string) string {
	switch {
	case strings.TrimSpace(title) == "":
		return "Title is required"
	case amount <= 0:
		return "Amount must be greater than zero"
	case !cat.Valid():
		return "Invalid category"
	}
	if _, err := core.ISOTimestamp(date); err != nil {
		return "Invalid date"
	}
	return ""
}

func (s *Server) createExpense(c *gin.Context) {
	var req core.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if msg := validateBody(req.Title, req.Amount, req.Category, req.Date); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msg})
		return
	}

	e := core.Expense{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
		Date:     req.Date,
		Notes:    req.Notes,
	}
	email := c.GetString(emailKey)
	s.mu.Lock()
	s.expenses[email] = append(s.expenses[email], e)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"data": e})
}

func (s *Server) updateExpense(c *gin.Context) {
	var req core.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if msg := validateBody(req.Title, req.Amount, req.Category, req.Date); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": msg})
		return
	}

	email := c.GetString(emailKey)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.expenses[email]
	for i := range list {
		if list[i].ID == req.ID {
			list[i] = core.Expense{
				ID:       req.ID,
				Title:    req.Title,
				Amount:   req.Amount,
				Category: req.Category,
				Date:     req.Date,
				Notes:    req.Notes,
			}
			c.JSON(http.StatusOK, gin.H{"data": list[i]})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
}

func (s *Server) getExpense(c *gin.Context) {
	id := c.Param("id")
	for _, e := range s.Expenses(c.GetString(emailKey)) {
		if e.ID == id {
			c.JSON(http.StatusOK, gin.H{"data": e})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
}

func (s *Server) deleteExpense(c *gin.Context) {
	id := c.Param("id")
	email := c.GetString(emailKey)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.expenses[email]
	for i := range list {
		if list[i].ID == id {
			s.expenses[email] = append(list[:i:i], list[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Expense not found"})
}

func (s *Server) listExpenses(c *gin.Context) {
	list := s.Expenses(c.GetString(emailKey))
	if list == nil {
		list = []core.Expense{}
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (s *Server) filterExpenses(c *gin.Context) {
	var req core.FilterExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	var (
		cat        core.Category
		start, end time.Time
	)
	if req.Category != "" {
		n, err := strconv.Atoi(req.Category)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid category"})
			return
		}
		cat = core.Category(n)
	}
	for _, p := range []struct {
		raw string
		dst *time.Time
	}{{req.StartDate, &start}, {req.EndDate, &end}} {
		if p.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, p.raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date"})
			return
		}
		*p.dst = t
	}

	out := []core.Expense{}
	for _, e := range s.Expenses(c.GetString(emailKey)) {
		if cat != 0 && e.Category != cat {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, e.Date)
		if err != nil {
			continue
		}
		if !start.IsZero() && t.Before(start) {
			continue
		}
		if !end.IsZero() && t.After(end) {
			continue
		}
		out = append(out, e)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) categorySummary(c *gin.Context) {
	byCat := map[core.Category]*core.CategorySummary{}
	for _, e := range s.Expenses(c.GetString(emailKey)) {
		sum, ok := byCat[e.Category]
		if !ok {
			sum = &core.CategorySummary{Category: e.Category.Label()}
			byCat[e.Category] = sum
		}
		sum.TotalAmount += e.Amount
		sum.Count++
	}
	out := []core.CategorySummary{}
	for _, cat := range core.Categories() {
		if sum, ok := byCat[cat]; ok {
			out = append(out, *sum)
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) trend(c *gin.Context) {
	byMonth := map[string]float64{}
	for _, e := range s.Expenses(c.GetString(emailKey)) {
		t, err := time.Parse(time.RFC3339Nano, e.Date)
		if err != nil {
			continue
		}
		byMonth[t.UTC().Format(core.MonthLayout)] += e.Amount
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]core.TrendData, 0, len(months))
	for _, m := range months {
		out = append(out, core.TrendData{Month: m, TotalSpent: byMonth[m]})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// MustToken logs in and returns a bearer token, registering the account
// first if needed. Handy for gateway tests that skip the session layer.
func (s *Server) MustToken(tb testing.TB, fullName, email, password string) string {
	tb.Helper()
	email = strings.ToLower(email)
	s.mu.Lock()
	if _, ok := s.accounts[email]; !ok {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			s.mu.Unlock()
			tb.Fatalf("hash password: %v", err)
		}
		s.accounts[email] = account{fullName: fullName, email: email, passwordHash: hash}
	}
	s.mu.Unlock()

	tok, err := s.issueToken(email)
	if err != nil {
		tb.Fatalf("issue token: %v", err)
	}
	return tok
}
