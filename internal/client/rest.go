package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"ContractTrader/internal/model"
)

// Options configures a RESTClient.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	ProxyURL   string
}

// RESTClient talks to the marketplace gateway on behalf of one account.
// Every path is scoped under /api/v1/accounts/{account}.
type RESTClient struct {
	account string
	prefix  string
	http    *resty.Client
}

// NewRESTClient creates a client for the named account. token is the
// account's session token and is sent as X-Account-Token.
func NewRESTClient(opts Options, account, token string) *RESTClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = time.Second
	}

	hc := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(10*opts.RetryWait).
		AddRetryCondition(retryIdempotent).
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		hc.SetAuthToken(opts.APIKey)
	}
	if token != "" {
		hc.SetHeader("X-Account-Token", token)
	}
	if opts.ProxyURL != "" {
		hc.SetProxy(opts.ProxyURL)
	}

	return &RESTClient{
		account: account,
		prefix:  "/api/v1/accounts/" + url.PathEscape(account),
		http:    hc,
	}
}

// retryIdempotent retries reads on transport errors, 429 and 5xx. Writes are
// never retried: a repeated bid or listing is not safe.
func retryIdempotent(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *RESTClient) Name() string { return c.account }

type itemsEnvelope struct {
	ItemData []model.Item `json:"itemData"`
}

type auctionsEnvelope struct {
	AuctionInfo []model.Auction `json:"auctionInfo"`
}

type storageEnvelope struct {
	ItemData []struct {
		ResourceID int64 `json:"resourceId"`
		Count      int   `json:"count"`
	} `json:"itemData"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *RESTClient) do(ctx context.Context, op, method, path string, body, out any, query url.Values) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, c.prefix+path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.IsError() {
		return resp, &TransportError{Op: op, StatusCode: resp.StatusCode(), Err: errors.Errorf("http non-2xx: %s", strings.TrimSpace(string(resp.Body())))}
	}
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return resp, &TransportError{Op: op, StatusCode: resp.StatusCode(), Err: errors.Wrap(err, "decode response")}
		}
	}
	return resp, nil
}

func (c *RESTClient) FetchAccountInfo(ctx context.Context) (model.AccountInfo, error) {
	var info model.AccountInfo
	_, err := c.do(ctx, OpFetchAccountInfo, http.MethodGet, "/info", nil, &info, nil)
	return info, err
}

func (c *RESTClient) FetchInventory(ctx context.Context) ([]model.Item, error) {
	var env itemsEnvelope
	if _, err := c.do(ctx, OpFetchInventory, http.MethodGet, "/purchased/items", nil, &env, nil); err != nil {
		return nil, err
	}
	return env.ItemData, nil
}

func (c *RESTClient) FetchTradePile(ctx context.Context) ([]model.Auction, error) {
	var env auctionsEnvelope
	if _, err := c.do(ctx, OpFetchTradePile, http.MethodGet, "/tradepile", nil, &env, nil); err != nil {
		return nil, err
	}
	return env.AuctionInfo, nil
}

func (c *RESTClient) FetchWatchList(ctx context.Context) ([]model.Auction, error) {
	var env auctionsEnvelope
	if _, err := c.do(ctx, OpFetchWatchList, http.MethodGet, "/watchlist", nil, &env, nil); err != nil {
		return nil, err
	}
	return env.AuctionInfo, nil
}

func (c *RESTClient) FetchStorageConsumables(ctx context.Context) (model.ItemCounts, error) {
	var env storageEnvelope
	if _, err := c.do(ctx, OpFetchStorageConsumables, http.MethodGet, "/club/consumables/development", nil, &env, nil); err != nil {
		return nil, err
	}
	counts := make(model.ItemCounts, len(env.ItemData))
	for _, it := range env.ItemData {
		counts[it.ResourceID] += it.Count
	}
	return counts, nil
}

func (c *RESTClient) SearchMarket(ctx context.Context, q model.SearchQuery) ([]model.Auction, error) {
	v := url.Values{}
	v.Set("start", strconv.Itoa(q.Start))
	v.Set("num", strconv.Itoa(q.Num))
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Category != "" {
		v.Set("cat", q.Category)
	}
	if q.Level != "" {
		v.Set("lev", q.Level)
	}
	if q.MaxCurrentBid > 0 {
		v.Set("macr", strconv.FormatInt(q.MaxCurrentBid, 10))
	}
	if q.MaxBuyNow > 0 {
		v.Set("maxb", strconv.FormatInt(q.MaxBuyNow, 10))
	}

	var env auctionsEnvelope
	if _, err := c.do(ctx, OpSearchMarket, http.MethodGet, "/transfermarket", nil, &env, v); err != nil {
		return nil, err
	}
	return env.AuctionInfo, nil
}

type pileMove struct {
	ID   int64  `json:"id"`
	Pile string `json:"pile"`
}

func (c *RESTClient) MoveToClub(ctx context.Context, itemIDs []int64) (model.MoveResult, error) {
	moves := make([]pileMove, len(itemIDs))
	for i, id := range itemIDs {
		moves[i] = pileMove{ID: id, Pile: "club"}
	}
	var res model.MoveResult
	_, err := c.do(ctx, OpMoveToClub, http.MethodPut, "/item", map[string]any{"itemData": moves}, &res, nil)
	return res, err
}

func (c *RESTClient) MoveToTransferList(ctx context.Context, resourceIDs []int64) (model.MoveResult, error) {
	moves := make([]pileMove, len(resourceIDs))
	for i, id := range resourceIDs {
		moves[i] = pileMove{ID: id, Pile: "trade"}
	}
	var res model.MoveResult
	_, err := c.do(ctx, OpMoveToTransferList, http.MethodPut, "/item/resource", map[string]any{"itemData": moves}, &res, nil)
	return res, err
}

func (c *RESTClient) CreateListing(ctx context.Context, l model.Listing) (model.ListingResult, error) {
	body := map[string]any{
		"itemData":    map[string]int64{"id": l.ItemID},
		"startingBid": l.StartingBid,
		"buyNowPrice": l.BuyNowPrice,
		"duration":    l.Duration,
	}
	var res model.ListingResult
	_, err := c.do(ctx, OpCreateListing, http.MethodPost, "/auctionhouse", body, &res, nil)
	return res, err
}

func (c *RESTClient) RelistAll(ctx context.Context) (model.RelistResult, error) {
	var env struct {
		TradeIDList []struct {
			ID int64 `json:"id"`
		} `json:"tradeIdList"`
	}
	if _, err := c.do(ctx, OpRelistAll, http.MethodPut, "/auctionhouse/relist", nil, &env, nil); err != nil {
		if ctx.Err() != nil {
			return model.RelistResult{}, err
		}
		return model.RelistResult{}, &RelistError{Err: err}
	}
	res := model.RelistResult{TradeIDs: make([]int64, 0, len(env.TradeIDList))}
	for _, t := range env.TradeIDList {
		res.TradeIDs = append(res.TradeIDs, t.ID)
	}
	return res, nil
}

func (c *RESTClient) DeleteSoldEntries(ctx context.Context) error {
	_, err := c.do(ctx, OpDeleteSoldEntries, http.MethodDelete, "/trade/sold", nil, nil, nil)
	return err
}

func (c *RESTClient) DeleteWatchEntries(ctx context.Context, tradeIDs []int64) error {
	ids := make([]string, len(tradeIDs))
	for i, id := range tradeIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	_, err := c.do(ctx, OpDeleteWatchEntries, http.MethodDelete, "/watchlist", nil, nil, url.Values{"tradeId": {strings.Join(ids, ",")}})
	return err
}

func (c *RESTClient) PlaceBid(ctx context.Context, tradeID, price int64) (model.BidResult, error) {
	var env struct {
		Credits     int64 `json:"credits"`
		AuctionInfo []struct {
			TradeID int64 `json:"tradeId"`
		} `json:"auctionInfo"`
	}
	path := fmt.Sprintf("/trade/%d/bid", tradeID)
	resp, err := c.do(ctx, OpPlaceBid, http.MethodPut, path, map[string]int64{"bid": price}, &env, nil)
	if err != nil {
		if code := bidRejectCode(resp); code != 0 {
			return model.BidResult{}, &BidError{TradeID: tradeID, Code: code}
		}
		return model.BidResult{}, err
	}
	return model.BidResult{TradeID: tradeID, Credits: env.Credits}, nil
}

// bidRejectCode extracts a marketplace rejection code from the status line
// or, for gateways that wrap it, the JSON error body.
func bidRejectCode(resp *resty.Response) int {
	if resp == nil {
		return 0
	}
	switch resp.StatusCode() {
	case CodeNotEnoughBudget, CodePermissionDenied:
		return resp.StatusCode()
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return 0
	}
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Code != 0 {
		return body.Code
	}
	return 0
}
