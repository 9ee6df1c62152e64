package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/router-for-me/codex-switcher/internal/auth/codex"
	"github.com/router-for-me/codex-switcher/internal/config"
	"github.com/router-for-me/codex-switcher/internal/misc"
	"github.com/router-for-me/codex-switcher/internal/util"
	sdkAuth "github.com/router-for-me/codex-switcher/sdk/auth"
	log "github.com/sirupsen/logrus"
)

// manualPromptDelay is how long the login waits for the browser redirect before offering
// to accept a pasted callback URL.
const manualPromptDelay = 15 * time.Second

// LoginOptions contains options for the login command.
type LoginOptions struct {
	// AccountName is the display name of the new account. It is prompted for when empty.
	AccountName string

	// NoBrowser indicates whether to skip opening the browser automatically.
	NoBrowser bool

	// CallbackPort overrides the local OAuth callback port when set (>0).
	CallbackPort int

	// Prompt allows the caller to provide interactive input when needed.
	Prompt func(prompt string) (string, error)

	// Out receives user-facing output. Defaults to stdout.
	Out io.Writer

	// ManualPromptDelay overrides manualPromptDelay when positive.
	ManualPromptDelay time.Duration

	// OpenBrowser replaces the default browser launcher when set.
	OpenBrowser func(url string) error
}

// DoCodexLogin runs the ChatGPT login and stores the new account as the active one.
// Cancelling ctx (for example on SIGINT) aborts the login and frees the callback port.
func DoCodexLogin(ctx context.Context, cfg *config.Config, options *LoginOptions) error {
	if options == nil {
		options = &LoginOptions{}
	}
	out := options.Out
	if out == nil {
		out = os.Stdout
	}
	promptFn := options.Prompt
	if promptFn == nil {
		promptFn = stdinPrompt(out)
	}

	if options.CallbackPort < 0 || options.CallbackPort > 65535 {
		err := fmt.Errorf("oauth callback port %d out of range (1-65535, or 0 for the configured port)", options.CallbackPort)
		_, _ = fmt.Fprintln(out, err)
		return err
	}

	name := strings.TrimSpace(options.AccountName)
	if name == "" {
		value, err := promptFn("Account name: ")
		if err != nil {
			return fmt.Errorf("read account name: %w", err)
		}
		name = strings.TrimSpace(value)
	}

	manager := newAuthManager(cfg)
	info, err := manager.StartLogin(ctx, name, &sdkAuth.LoginOptions{
		NoBrowser:    options.NoBrowser,
		CallbackPort: options.CallbackPort,
		OpenBrowser:  options.OpenBrowser,
	})
	if err != nil {
		return reportLoginError(out, err)
	}
	defer manager.CancelLogin()

	if info.BrowserOpened {
		_, _ = fmt.Fprintf(out, "A browser window was opened. If it did not appear, visit:\n%s\n", info.AuthURL)
	} else {
		util.PrintSSHTunnelInstructions(out, int(info.CallbackPort))
		_, _ = fmt.Fprintf(out, "Visit the following URL to continue authentication:\n%s\n", info.AuthURL)
		if errCopy := clipboard.WriteAll(info.AuthURL); errCopy != nil {
			log.Debugf("copy login URL to clipboard failed: %v", errCopy)
		} else {
			_, _ = fmt.Fprintln(out, "(The URL was copied to your clipboard.)")
		}
	}
	_, _ = fmt.Fprintln(out, "Waiting for ChatGPT authentication callback...")

	account, err := waitForLogin(ctx, manager, info, promptFn, options.ManualPromptDelay)
	if err != nil {
		return reportLoginError(out, err)
	}

	_, _ = fmt.Fprintf(out, "Account %q added", account.Name)
	if account.Email != "" {
		_, _ = fmt.Fprintf(out, " (%s", account.Email)
		if account.PlanType != "" {
			_, _ = fmt.Fprintf(out, ", %s", account.PlanType)
		}
		_, _ = fmt.Fprint(out, ")")
	}
	_, _ = fmt.Fprintln(out, " and set as active.")
	return nil
}

// waitForLogin waits for the browser redirect. After the manual prompt delay it also
// accepts a pasted callback URL and forwards it to the loopback listener, so a pasted
// redirect goes through the same validation as a real one. An empty or unusable paste
// re-arms the prompt.
func waitForLogin(ctx context.Context, manager *sdkAuth.Manager, info *sdkAuth.LoginInfo, promptFn func(string) (string, error), delay time.Duration) (*sdkAuth.AccountInfo, error) {
	type outcome struct {
		account *sdkAuth.AccountInfo
		err     error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		account, err := manager.CompleteLogin(ctx)
		resultCh <- outcome{account: account, err: err}
	}()

	if delay <= 0 {
		delay = manualPromptDelay
	}
	manualTimer := time.NewTimer(delay)
	defer manualTimer.Stop()
	manualPromptC := manualTimer.C

	redirectURI := codex.RedirectURIForPort(int(info.CallbackPort))
	pastedCh := make(chan string, 1)

	for {
		select {
		case res := <-resultCh:
			return res.account, res.err
		case <-manualPromptC:
			manualPromptC = nil
			go func() {
				input, errPrompt := promptFn("Paste the callback URL (or press Enter to keep waiting): ")
				if errPrompt != nil {
					log.Debugf("manual callback prompt closed: %v", errPrompt)
					return
				}
				pastedCh <- input
			}()
		case input := <-pastedCh:
			parsed, errParse := misc.ParseOAuthCallback(input)
			switch {
			case errParse != nil:
				log.Warnf("ignoring pasted callback: %v", errParse)
			case parsed == nil:
			default:
				errForward := forwardCallback(ctx, redirectURI, parsed)
				if errForward == nil {
					continue
				}
				log.Warnf("forward pasted callback failed: %v", errForward)
			}
			// Nothing reached the listener; offer the prompt again after another delay.
			manualTimer.Reset(delay)
			manualPromptC = manualTimer.C
		}
	}
}

// forwardCallback replays a pasted redirect against the loopback listener.
func forwardCallback(ctx context.Context, redirectURI string, cb *misc.OAuthCallback) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, redirectURI+"?"+cb.Query().Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("close callback response body: %v", errClose)
		}
	}()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func reportLoginError(out io.Writer, err error) error {
	var dup *sdkAuth.DuplicateAccountError
	switch {
	case errors.As(err, &dup):
		_, _ = fmt.Fprintf(out, "%v\n", dup)
	case codex.IsAuthenticationError(err) || codex.IsOAuthError(err):
		_, _ = fmt.Fprintln(out, codex.GetUserFriendlyMessage(err))
		log.Debugf("login failed: %v", err)
	default:
		_, _ = fmt.Fprintf(out, "ChatGPT authentication failed: %v\n", err)
	}
	return err
}

func stdinPrompt(out io.Writer) func(string) (string, error) {
	reader := bufio.NewReader(os.Stdin)
	return func(prompt string) (string, error) {
		_, _ = fmt.Fprint(out, prompt)
		value, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && value != "") {
			return "", err
		}
		return strings.TrimSpace(value), nil
	}
}
