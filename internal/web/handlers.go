package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"portal/internal"
	"portal/internal/pipeline"
	"portal/internal/session"
)

const (
	dayLayout = "2006-01-02"
	xlsxType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) showLogin(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		if _, err := s.sessions.Parse(token); err == nil {
			c.Redirect(http.StatusSeeOther, "/orders")
			return
		}
	}
	c.HTML(http.StatusOK, "login", loginPageData{PasswordRequired: s.sessions.PasswordRequired()})
}

func (s *Server) submitLogin(c *gin.Context) {
	customerID := c.PostForm("customer_id")
	token, sess, err := s.sessions.Login(customerID, c.PostForm("password"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, session.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		s.logger.Info("login rejected", zap.String("customerId", strings.TrimSpace(customerID)), zap.Error(err))
		c.HTML(status, "login", loginPageData{
			CustomerID:       strings.TrimSpace(customerID),
			Error:            loginMessage(err),
			PasswordRequired: s.sessions.PasswordRequired(),
		})
		return
	}

	s.setSessionCookie(c, token, int(time.Until(sess.ExpiresAt).Seconds()))
	s.logger.Info("customer logged in", zap.String("customerId", sess.CustomerID))
	c.Redirect(http.StatusSeeOther, "/orders")
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		if sess, err := s.sessions.Parse(token); err == nil {
			s.orders.Invalidate(sess.CustomerID)
			s.logger.Info("customer logged out", zap.String("customerId", sess.CustomerID))
		}
	}
	s.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/login")
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidCustomerID):
		return "Please enter a valid customer ID."
	case errors.Is(err, session.ErrInvalidCredentials):
		return "Invalid customer ID or password."
	default:
		return "Login failed. Please try again."
	}
}

func (s *Server) showOrders(c *gin.Context) {
	s.renderOrders(c, "", nil, nil)
}

func (s *Server) recommend(c *gin.Context) {
	orderID := c.Param("id")
	recs, notices := s.orders.Recommend(c.Request.Context(), sessionFrom(c), orderID)
	s.renderOrders(c, orderID, recs, notices)
}

// renderOrders draws the orders tab. recOrder names the order whose
// recommendation results are shown expanded, if any.
func (s *Server) renderOrders(c *gin.Context, recOrder string, recs []string, recNotices []pipeline.Notice) {
	sess := sessionFrom(c)
	ctx := c.Request.Context()
	filter, fv := parseFilter(c)

	page, _ := s.orders.Load(ctx, sess, isRefresh(c.Query("refresh")))
	customer, customerNotices := s.orders.Customer(ctx, sess)

	visible := pipeline.SortByDateDesc(pipeline.ApplyFilter(page.Book.Summaries, filter))
	fv.StatusOptions = page.Dashboard.StatusOptions
	fv.MinDate = formatDay(page.Dashboard.MinDate)
	fv.MaxDate = formatDay(page.Dashboard.MaxDate)

	data := ordersPageData{
		CustomerID:   sess.CustomerID,
		CustomerName: pipeline.CustomerName(customer),
		Notices:      append(customerNotices, page.Notices...),
		Dashboard:    newDashboardView(page.Dashboard),
		Filter:       fv,
		Total:        len(page.Book.Summaries),
		ExportURL:    "/orders/export.xlsx" + fv.QueryString(),
		FetchedAt:    page.FetchedAt.Format(time.RFC1123),
	}
	for _, summary := range visible {
		view := newOrderView(summary, page.Book.ItemLines(summary.OrderID))
		if summary.OrderID == recOrder {
			view.Open = true
			view.Recommendations = recs
			view.RecommendationNotices = recNotices
		}
		data.Orders = append(data.Orders, view)
	}
	c.HTML(http.StatusOK, "orders", data)
}

func (s *Server) exportOrders(c *gin.Context) {
	sess := sessionFrom(c)
	filter, _ := parseFilter(c)
	page, err := s.orders.Load(c.Request.Context(), sess, false)
	if err != nil && len(page.Book.Summaries) == 0 {
		c.String(http.StatusBadGateway, "orders unavailable: %s", noticeText(page.Notices))
		return
	}

	visible := pipeline.SortByDateDesc(pipeline.ApplyFilter(page.Book.Summaries, filter))
	filename := fmt.Sprintf("orders-%s-%s.xlsx", sess.CustomerID, time.Now().UTC().Format("20060102"))
	c.Header("Content-Type", xlsxType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := pipeline.WriteSummariesXLSX(c.Writer, visible); err != nil {
		s.logger.Error("export orders failed", zap.String("customerId", sess.CustomerID), zap.Error(err))
	}
}

func (s *Server) showLookup(c *gin.Context) {
	sess := sessionFrom(c)
	data := lookupPageData{CustomerID: sess.CustomerID}
	if productID, ok := c.GetQuery("product_id"); ok {
		res := s.suppliers.Lookup(c.Request.Context(), sess, productID)
		data.ProductID = res.ProductID
		data.Notices = res.Notices
		if res.View != nil {
			view := newSupplierView(*res.View)
			data.Supplier = &view
		}
	}
	c.HTML(http.StatusOK, "lookup", data)
}

// parseFilter reads the orders filter from the query string. Unparseable
// dates are dropped, which leaves the range inactive.
func parseFilter(c *gin.Context) (internal.OrderFilter, filterView) {
	fv := filterView{
		Status: strings.TrimSpace(c.Query("status")),
		From:   strings.TrimSpace(c.Query("from")),
		To:     strings.TrimSpace(c.Query("to")),
		Search: strings.TrimSpace(c.Query("q")),
	}
	if fv.Status == "" {
		fv.Status = internal.StatusAll
	}
	filter := internal.OrderFilter{Status: fv.Status, Search: fv.Search}
	if t, err := time.Parse(dayLayout, fv.From); err == nil {
		filter.From = &t
	} else {
		fv.From = ""
	}
	if t, err := time.Parse(dayLayout, fv.To); err == nil {
		filter.To = &t
	} else {
		fv.To = ""
	}
	return filter, fv
}

func isRefresh(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dayLayout)
}

func noticeText(notices []pipeline.Notice) string {
	parts := make([]string, 0, len(notices))
	for _, n := range notices {
		parts = append(parts, n.Text)
	}
	return strings.Join(parts, " ")
}

func (f filterView) QueryString() string {
	q := url.Values{}
	if f.Status != "" && f.Status != internal.StatusAll {
		q.Set("status", f.Status)
	}
	if f.From != "" {
		q.Set("from", f.From)
	}
	if f.To != "" {
		q.Set("to", f.To)
	}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
