package playstore

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

const (
	detailsPath = "/store/apps/details"
	detailsKey  = "ds:5"
)

// AppInfo is the subset of app metadata shown before collection
type AppInfo struct {
	AppID    string  `json:"app_id"`
	Title    string  `json:"title"`
	Score    float64 `json:"score"`
	Ratings  int64   `json:"ratings"`
	Reviews  int64   `json:"reviews"`
	Installs string  `json:"installs"`
}

// AppInfo fetches the details page of an app and extracts its metadata
func (c *Client) AppInfo(ctx context.Context, appID, lang, country string) (*AppInfo, error) {
	query := url.Values{}
	query.Set("id", appID)
	query.Set("hl", lang)
	query.Set("gl", country)

	body, err := c.get(ctx, detailsPath, query)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch details for %s", appID)
	}

	data, err := callbackData(string(body), detailsKey)
	if err != nil {
		return nil, errors.Wrapf(err, "parse details for %s", appID)
	}

	info := &AppInfo{
		AppID:    appID,
		Title:    gjson.Get(data, "1.2.0.0").String(),
		Score:    gjson.Get(data, "1.2.51.0.1").Float(),
		Ratings:  gjson.Get(data, "1.2.51.2.1").Int(),
		Reviews:  gjson.Get(data, "1.2.51.3.1").Int(),
		Installs: gjson.Get(data, "1.2.13.0").String(),
	}
	if info.Title == "" {
		return nil, errors.Errorf("no title found for %s", appID)
	}
	return info, nil
}

// callbackData finds the AF_initDataCallback script registered under key
// and returns its data array as raw JSON
func callbackData(page, key string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", errors.Wrap(err, "parse html")
	}

	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
			text := n.FirstChild.Data
			if strings.Contains(text, "AF_initDataCallback") && strings.Contains(text, "'"+key+"'") {
				found = text
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found == "" {
		return "", errors.Errorf("callback %s not found", key)
	}

	start := strings.Index(found, "data:")
	end := strings.LastIndex(found, ", sideChannel:")
	if start < 0 || end <= start {
		return "", errors.Errorf("callback %s has no data", key)
	}

	data := strings.TrimSpace(found[start+len("data:") : end])
	if !gjson.Valid(data) {
		return "", errors.Errorf("callback %s data is not valid JSON", key)
	}
	return data, nil
}
