package airbnb

import (
	"context"
	"destination-finder/utils"
	"fmt"
	"regexp"
	"time"

	"github.com/chromedp/chromedp"
)

// The web client embeds its public API key in the page bootstrap data,
// under one of these names depending on the page version.
var apiKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"api_config"\s*:\s*\{\s*"key"\s*:\s*"([a-z0-9]{20,40})"`),
	regexp.MustCompile(`"baseApiKey"\s*:\s*"([a-z0-9]{20,40})"`),
	regexp.MustCompile(`"airbnbApiKey"\s*:\s*"([a-z0-9]{20,40})"`),
}

type BrowserConfig struct {
	BaseURL   string
	Headless  bool
	UserAgent string
	Timeout   time.Duration
}

// DiscoverAPIKey opens the site in a headless browser and reads the API key
// the web client itself uses. It is only needed when AIRBNB_API_KEY is unset.
func DiscoverAPIKey(ctx context.Context, cfg BrowserConfig) (string, error) {
	utils.Info("Launching Chrome to discover the search API key...")

	if cfg.UserAgent == "" {
		cfg.UserAgent = utils.RandomUserAgent()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, utils.BrowserOpts(cfg.Headless, cfg.UserAgent)...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	runCtx, cancel := context.WithTimeout(tabCtx, cfg.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(cfg.BaseURL),
		utils.HideWebDriver(),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return utils.RandomDelay(ctx, 2*time.Second, 4*time.Second)
		}),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("homepage error: %w", err)
	}

	key, err := extractAPIKey(html)
	if err != nil {
		return "", err
	}

	utils.Success("Discovered search API key")
	return key, nil
}

func extractAPIKey(html string) (string, error) {
	for _, re := range apiKeyPatterns {
		if m := re.FindStringSubmatch(html); m != nil {
			return m[1], nil
		}
	}
	return "", ErrAPIKeyNotFound
}
