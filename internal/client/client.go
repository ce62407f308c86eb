package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/simonvc/bookkeeper/internal/engine"
	"github.com/simonvc/bookkeeper/internal/ledger"
)

const dateLayout = "2006-01-02"

type Client struct {
	baseURL    string
	ownerID    string
	actorID    string
	httpClient *http.Client
}

func New(baseURL, ownerID string) *Client {
	return &Client{
		baseURL: baseURL,
		ownerID: ownerID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithActor sets who is recorded as making status changes. The server falls
// back to the owner when it is empty.
func (c *Client) WithActor(actor string) *Client {
	c.actorID = actor
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status    int             `json:"-"`
	Message   string          `json:"error"`
	State     string          `json:"state,omitempty"`
	Conflicts []ledger.Period `json:"conflicts,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Accounts

func accountBody(acct *ledger.Account) map[string]any {
	return map[string]any{
		"name":            acct.Name,
		"code":            acct.Code,
		"class":           acct.Class,
		"type":            acct.Type,
		"is_open":         acct.IsOpen,
		"is_read_only":    acct.IsReadOnly,
		"opening_balance": acct.OpeningBalance,
	}
}

func (c *Client) CreateAccount(ctx context.Context, acct *ledger.Account) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.post(ctx, "/api/v1/accounts", accountBody(acct), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateAccount(ctx context.Context, acct *ledger.Account) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.put(ctx, "/api/v1/accounts/"+url.PathEscape(acct.ID), accountBody(acct), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccounts(ctx context.Context, class ledger.AccountClass, includeClosed bool) ([]ledger.Account, error) {
	params := url.Values{}
	if class != "" {
		params.Set("class", string(class))
	}
	if includeClosed {
		params.Set("include_closed", "true")
	}
	var result []ledger.Account
	if err := c.get(ctx, "/api/v1/accounts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/accounts/"+url.PathEscape(id))
}

func (c *Client) AccountLedger(ctx context.Context, id string, r ledger.DateRange) (*ledger.AccountLedger, error) {
	var result ledger.AccountLedger
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id)+"/ledger"+rangeQuery(r), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetChart(ctx context.Context) ([]ledger.ChartEntry, error) {
	var result []ledger.ChartEntry
	if err := c.get(ctx, "/api/v1/chart", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) SeedChart(ctx context.Context) ([]ledger.Account, error) {
	var result []ledger.Account
	if err := c.post(ctx, "/api/v1/chart/seed", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Transactions

func transactionBody(txn *ledger.Transaction) map[string]any {
	return map[string]any{
		"date":              txn.Date.Format(dateLayout),
		"amount":            txn.Amount,
		"payee":             txn.Payee,
		"customer_id":       txn.CustomerID,
		"notes":             txn.Notes,
		"tags":              txn.Tags,
		"account_id":        txn.AccountID,
		"debit_account_id":  txn.DebitAccountID,
		"credit_account_id": txn.CreditAccountID,
		"status":            txn.Status,
	}
}

func (c *Client) CreateTransaction(ctx context.Context, txn *ledger.Transaction) (*ledger.Transaction, error) {
	var result ledger.Transaction
	if err := c.post(ctx, "/api/v1/transactions", transactionBody(txn), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, txn *ledger.Transaction) (*ledger.Transaction, error) {
	var result ledger.Transaction
	if err := c.put(ctx, "/api/v1/transactions/"+url.PathEscape(txn.ID), transactionBody(txn), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SplitResult is the parent and children of a stored split group.
type SplitResult struct {
	Parent   *ledger.Transaction   `json:"parent"`
	Children []*ledger.Transaction `json:"children"`
}

func (c *Client) CreateSplit(ctx context.Context, parent *ledger.Transaction, children []*ledger.Transaction) (*SplitResult, error) {
	kids := make([]map[string]any, 0, len(children))
	for _, ch := range children {
		if ch.Date.IsZero() {
			ch.Date = parent.Date
		}
		kids = append(kids, transactionBody(ch))
	}
	body := map[string]any{
		"date":        parent.Date.Format(dateLayout),
		"payee":       parent.Payee,
		"customer_id": parent.CustomerID,
		"notes":       parent.Notes,
		"status":      parent.Status,
		"children":    kids,
	}
	var result SplitResult
	if err := c.post(ctx, "/api/v1/transactions/split", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type TxnQuery struct {
	AccountID string
	Range     ledger.DateRange
	Status    ledger.Status
	// ExcludeDrafts hides drafts, which the server lists by default.
	ExcludeDrafts bool
	Limit         int
}

func (c *Client) ListTransactions(ctx context.Context, q TxnQuery) ([]ledger.Transaction, error) {
	params := rangeValues(q.Range)
	if q.AccountID != "" {
		params.Set("account_id", q.AccountID)
	}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.ExcludeDrafts {
		params.Set("include_drafts", "false")
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprint(q.Limit))
	}
	var result []ledger.Transaction
	if err := c.get(ctx, "/api/v1/transactions?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*ledger.Transaction, error) {
	var result ledger.Transaction
	if err := c.get(ctx, "/api/v1/transactions/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/transactions/"+url.PathEscape(id))
}

// AdvanceResult holds either the moved transaction or, when Blocked is
// true, the unchanged transaction and the unmet conditions.
type AdvanceResult struct {
	Blocked     bool                `json:"blocked"`
	Unmet       []string            `json:"unmet"`
	Transaction *ledger.Transaction `json:"transaction"`
}

func (c *Client) Advance(ctx context.Context, id string, expected ledger.Status, notes string) (*AdvanceResult, error) {
	body := map[string]any{"expected": expected, "notes": notes}
	var raw json.RawMessage
	if err := c.post(ctx, "/api/v1/transactions/"+url.PathEscape(id)+"/advance", body, &raw); err != nil {
		return nil, err
	}
	var res AdvanceResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if res.Blocked {
		return &res, nil
	}
	var txn ledger.Transaction
	if err := json.Unmarshal(raw, &txn); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &AdvanceResult{Transaction: &txn}, nil
}

func (c *Client) Unreconcile(ctx context.Context, id, reason string) (*ledger.Transaction, error) {
	var result ledger.Transaction
	if err := c.post(ctx, "/api/v1/transactions/"+url.PathEscape(id)+"/unreconcile", map[string]any{"reason": reason}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) History(ctx context.Context, id string) ([]ledger.StatusChange, error) {
	var result []ledger.StatusChange
	if err := c.get(ctx, "/api/v1/transactions/"+url.PathEscape(id)+"/history", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) AttachDocument(ctx context.Context, txnID, typeID, name string) (*ledger.Document, error) {
	var result ledger.Document
	body := map[string]any{"document_type_id": typeID, "name": name}
	if err := c.post(ctx, "/api/v1/transactions/"+url.PathEscape(txnID)+"/documents", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListDocuments(ctx context.Context, txnID string) ([]ledger.Document, error) {
	var result []ledger.Document
	if err := c.get(ctx, "/api/v1/transactions/"+url.PathEscape(txnID)+"/documents", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Periods and closing

func (c *Client) CreatePeriod(ctx context.Context, start, end time.Time, notes string) (*ledger.Period, error) {
	body := map[string]any{"start_date": start.Format(dateLayout), "end_date": end.Format(dateLayout), "notes": notes}
	var result ledger.Period
	if err := c.post(ctx, "/api/v1/periods", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListPeriods(ctx context.Context) ([]ledger.Period, error) {
	var result []ledger.Period
	if err := c.get(ctx, "/api/v1/periods", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) DeletePeriod(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/periods/"+url.PathEscape(id))
}

func (c *Client) ClosePeriod(ctx context.Context, id string) (*ledger.Period, error) {
	var result ledger.Period
	if err := c.post(ctx, "/api/v1/periods/"+url.PathEscape(id)+"/close", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ReopenPeriod(ctx context.Context, id string) (*ledger.Period, error) {
	var result ledger.Period
	if err := c.post(ctx, "/api/v1/periods/"+url.PathEscape(id)+"/reopen", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func closingBody(req ledger.ClosingRequest) map[string]any {
	body := map[string]any{
		"profit_loss_account_id":       req.ProfitLossAccountID,
		"retained_earnings_account_id": req.RetainedEarningsAccountID,
		"status":                       req.Status,
	}
	if !req.Date.IsZero() {
		body["date"] = req.Date.Format(dateLayout)
	}
	return body
}

func (c *Client) PreviewClosing(ctx context.Context, req ledger.ClosingRequest, r ledger.DateRange) (*ledger.ClosingPreview, error) {
	body := closingBody(req)
	body["period_id"] = req.PeriodID
	if !r.From.IsZero() {
		body["from"] = r.From.Format(dateLayout)
	}
	if !r.To.IsZero() {
		body["to"] = r.To.Format(dateLayout)
	}
	var result ledger.ClosingPreview
	if err := c.post(ctx, "/api/v1/closing/preview", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateClosingEntries(ctx context.Context, req ledger.ClosingRequest) ([]ledger.Transaction, error) {
	var result struct {
		Entries []ledger.Transaction `json:"entries"`
	}
	if err := c.post(ctx, "/api/v1/periods/"+url.PathEscape(req.PeriodID)+"/closing-entries", closingBody(req), &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}

func (c *Client) ClosingState(ctx context.Context, periodID string) (*engine.ClosingState, error) {
	var result engine.ClosingState
	if err := c.get(ctx, "/api/v1/periods/"+url.PathEscape(periodID)+"/closing-state", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Reports

func (c *Client) IncomeStatement(ctx context.Context, r ledger.DateRange) (*ledger.IncomeStatement, error) {
	var result ledger.IncomeStatement
	if err := c.get(ctx, "/api/v1/reports/income-statement"+rangeQuery(r), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) BalanceSheet(ctx context.Context, r ledger.DateRange) (*ledger.BalanceSheet, error) {
	var result ledger.BalanceSheet
	if err := c.get(ctx, "/api/v1/reports/balance-sheet"+rangeQuery(r), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TrialBalance(ctx context.Context, r ledger.DateRange) (*ledger.TrialBalance, error) {
	var result ledger.TrialBalance
	if err := c.get(ctx, "/api/v1/reports/trial-balance"+rangeQuery(r), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AccountBalances(ctx context.Context, r ledger.DateRange) ([]ledger.AccountNode, error) {
	var result []ledger.AccountNode
	if err := c.get(ctx, "/api/v1/reports/balances"+rangeQuery(r), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Settings

func (c *Client) GetSettings(ctx context.Context) (*ledger.Settings, error) {
	var result ledger.Settings
	if err := c.get(ctx, "/api/v1/settings", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSettings sends only the fields present in patch.
func (c *Client) UpdateSettings(ctx context.Context, patch map[string]any) (*ledger.Settings, error) {
	var result ledger.Settings
	if err := c.put(ctx, "/api/v1/settings", patch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListDocumentTypes(ctx context.Context) ([]ledger.DocumentType, error) {
	var result []ledger.DocumentType
	if err := c.get(ctx, "/api/v1/document-types", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) CreateDocumentType(ctx context.Context, name string, required bool) (*ledger.DocumentType, error) {
	var result ledger.DocumentType
	if err := c.post(ctx, "/api/v1/document-types", map[string]any{"name": name, "is_required": required}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks if the server is reachable and its database answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil)
}

func rangeValues(r ledger.DateRange) url.Values {
	params := url.Values{}
	if !r.From.IsZero() {
		params.Set("from", r.From.Format(dateLayout))
	}
	if !r.To.IsZero() {
		params.Set("to", r.To.Format(dateLayout))
	}
	return params
}

func rangeQuery(r ledger.DateRange) string {
	params := rangeValues(r)
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.send(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) del(ctx context.Context, path string) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	return c.send(ctx, http.MethodPut, path, body, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.send(ctx, http.MethodPost, path, body, result)
}

func (c *Client) send(ctx context.Context, method, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.ownerID != "" {
		req.Header.Set("X-Owner-ID", c.ownerID)
	}
	if c.actorID != "" {
		req.Header.Set("X-Actor-ID", c.actorID)
	}
	return c.doRequest(req, result)
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(bodyBytes, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(bodyBytes)
		}
		return apiErr
	}

	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
