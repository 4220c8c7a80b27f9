package translate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

func init() {
	Register("google", newGoogle)
	Register("baidu", newBaidu)
	Register("deepl", newDeepL)
	Register("dict", newDict)
}

const (
	googleEndpoint    = "https://translate.googleapis.com/translate_a/single"
	baiduEndpoint     = "https://fanyi-api.baidu.com/api/trans/vip/translate"
	deeplEndpoint     = "https://api.deepl.com/v2/translate"
	deeplFreeEndpoint = "https://api-free.deepl.com/v2/translate"
)

// google uses the keyless web endpoint.
type google struct {
	endpoint string
	client   *http.Client
}

func newGoogle(o Options) (Engine, error) {
	return &google{endpoint: orDefault(o.Endpoint, googleEndpoint), client: o.client()}, nil
}

func (g *google) Name() string { return "google" }

func (g *google) Translate(ctx context.Context, text string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", "en")
	q.Set("dt", "t")
	q.Set("q", text)
	body, err := do(ctx, g.client, http.MethodGet, g.endpoint+"?"+q.Encode(), nil, nil)
	if err != nil {
		return "", err
	}
	// [[["translated","source",...],...],...]
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", errors.New("empty response")
	}
	segments, _ := payload[0].([]any)
	var sb strings.Builder
	for _, seg := range segments {
		parts, _ := seg.([]any)
		if len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}

type baidu struct {
	endpoint      string
	appID, secret string
	client        *http.Client
	now           func() time.Time
}

func newBaidu(o Options) (Engine, error) {
	if o.AppID == "" || o.Secret == "" {
		return nil, errors.New("baidu engine requires translateAppId and translateSecret")
	}
	return &baidu{
		endpoint: orDefault(o.Endpoint, baiduEndpoint),
		appID:    o.AppID,
		secret:   o.Secret,
		client:   o.client(),
		now:      time.Now,
	}, nil
}

func (b *baidu) Name() string { return "baidu" }

func (b *baidu) Translate(ctx context.Context, text string) (string, error) {
	salt := strconv.FormatInt(b.now().UnixNano(), 10)
	sum := md5.Sum([]byte(b.appID + text + salt + b.secret))
	form := url.Values{}
	form.Set("q", text)
	form.Set("from", "auto")
	form.Set("to", "en")
	form.Set("appid", b.appID)
	form.Set("salt", salt)
	form.Set("sign", hex.EncodeToString(sum[:]))
	hdr := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	body, err := do(ctx, b.client, http.MethodPost, b.endpoint, strings.NewReader(form.Encode()), hdr)
	if err != nil {
		return "", err
	}
	var payload struct {
		ErrorCode   string `json:"error_code"`
		ErrorMsg    string `json:"error_msg"`
		TransResult []struct {
			Dst string `json:"dst"`
		} `json:"trans_result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if payload.ErrorCode != "" && payload.ErrorCode != "52000" {
		return "", fmt.Errorf("baidu error %s: %s", payload.ErrorCode, payload.ErrorMsg)
	}
	parts := make([]string, 0, len(payload.TransResult))
	for _, r := range payload.TransResult {
		parts = append(parts, r.Dst)
	}
	return strings.Join(parts, " "), nil
}

type deepl struct {
	endpoint string
	key      string
	client   *http.Client
}

func newDeepL(o Options) (Engine, error) {
	if o.APIKey == "" {
		return nil, errors.New("deepl engine requires translateApiKey")
	}
	endpoint := deeplEndpoint
	if strings.HasSuffix(o.APIKey, ":fx") {
		endpoint = deeplFreeEndpoint
	}
	return &deepl{endpoint: orDefault(o.Endpoint, endpoint), key: o.APIKey, client: o.client()}, nil
}

func (d *deepl) Name() string { return "deepl" }

func (d *deepl) Translate(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", "EN")
	hdr := http.Header{
		"Content-Type":  {"application/x-www-form-urlencoded"},
		"Authorization": {"DeepL-Auth-Key " + d.key},
	}
	body, err := do(ctx, d.client, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()), hdr)
	if err != nil {
		return "", err
	}
	var payload struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Translations) == 0 {
		return "", errors.New("empty response")
	}
	return payload.Translations[0].Text, nil
}

// dict translates from a fixed dictionary and never touches the network.
type dict struct {
	words map[string]string
}

func newDict(o Options) (Engine, error) {
	return &dict{words: o.Dictionary}, nil
}

func (d *dict) Name() string { return "dict" }

func (d *dict) Translate(_ context.Context, text string) (string, error) {
	if v, ok := d.words[text]; ok {
		return v, nil
	}
	return "", errors.New("no dictionary entry")
}

func do(ctx context.Context, client *http.Client, method, target string, body io.Reader, hdr http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		msg := string(data)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(msg))
	}
	return data, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
