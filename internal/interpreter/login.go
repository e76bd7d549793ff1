package interpreter

import (
	"context"
	"fmt"

	"github.com/reimburse-stack/reclaim/internal/types"
)

// loginEncryptionScript encrypts the password on the page with the
// site-provided seed and plants it in a hidden form field, mirroring what
// the login page's own submit handler expects.
const loginEncryptionScript = `(() => {
	const password = %q;
	const passSelector = %q;
	try {
		const seed = window._SecuritySeed;
		const cryptoObj = window.CryptoJS;
		if (!seed || !cryptoObj) {
			return { error: 'CryptoJS or seed not found on page.' };
		}

		const encrypted = cryptoObj.DES.encrypt(password, seed);

		const hiddenPassId = 'login_password';
		let hiddenInput = document.getElementById(hiddenPassId);
		if (!hiddenInput) {
			hiddenInput = document.createElement('input');
			hiddenInput.type = 'hidden';
			hiddenInput.id = hiddenPassId;
			hiddenInput.name = hiddenPassId;
			const form = document.querySelector('form');
			if (form) form.appendChild(hiddenInput);
		}
		hiddenInput.value = encrypted.toString();

		const visibleField = document.querySelector(passSelector);
		if (visibleField) visibleField.value = password;

		return { encrypted_password: encrypted.toString() };
	} catch (e) {
		return { error: 'JS execution error: ' + e.toString() };
	}
})()`

// runLoginHumanLike performs a full login: navigate, fill the username like
// a user would, encrypt the password in page context, then submit through
// the page's own click handler.
func (i *Interpreter) runLoginHumanLike(ctx context.Context, step *types.Step, params map[string]any) (any, error) {
	var values [6]string
	for idx, key := range [6]string{"url", "username", "password", "username_selector", "password_selector", "submit_selector"} {
		v, err := stringParam(step, params, key)
		if err != nil {
			return nil, err
		}
		values[idx] = v
	}
	url, username, password := values[0], values[1], values[2]
	usernameSelector, passwordSelector, submitSelector := values[3], values[4], values[5]

	if err := i.tracker.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := i.tracker.Fill(ctx, usernameSelector, username); err != nil {
		return nil, err
	}

	result, err := i.tracker.Evaluate(ctx, fmt.Sprintf(loginEncryptionScript, password, passwordSelector))
	if err != nil {
		return nil, err
	}
	if m, ok := result.(map[string]any); ok {
		if msg, found := m["error"].(string); found && msg != "" {
			return nil, fmt.Errorf("failed to encrypt password on page: %s", msg)
		}
	}
	i.logger.Info("password encrypted and hidden field set")

	if err := i.tracker.JSClick(ctx, submitSelector); err != nil {
		return nil, err
	}
	if err := i.tracker.WaitForLoadState(ctx, "networkidle", 30000); err != nil {
		return nil, err
	}
	i.logger.Info("login submitted successfully")
	return nil, nil
}
