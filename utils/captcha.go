package utils

import (
	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
)

// Captcha issues digit captchas for the registration form.
type Captcha struct {
	store  base64Captcha.Store
	driver base64Captcha.Driver
}

// NewCaptcha keeps answers in Redis when rc is set, in process memory otherwise.
func NewCaptcha(rc *redis.Client) *Captcha {
	store := base64Captcha.DefaultMemStore
	if rc != nil {
		store = NewRedisCaptchaStore(rc, 0)
	}
	return &Captcha{
		store:  store,
		driver: base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80),
	}
}

// Generate returns (id, dataURI) for the client to display.
func (c *Captcha) Generate() (string, string, error) {
	id, b64, _, err := base64Captcha.NewCaptcha(c.driver, c.store).Generate()
	return id, b64, err
}

// Verify checks the answer and consumes the captcha.
func (c *Captcha) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return c.store.Verify(id, answer, true)
}
