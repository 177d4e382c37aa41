package config

import (
	"time"

	"github.com/hazyhaar/blogpilot/sequence"
)

func (c *Config) applyDefaults() {
	if c.Site.LoginURL == "" {
		c.Site.LoginURL = "https://nid.naver.com/nidlogin.login"
	}
	if c.Site.WriteURL == "" {
		c.Site.WriteURL = "https://blog.naver.com/GoBlogWrite.naver"
	}

	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.NavTimeout <= 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}

	if c.Run.StepTimeout <= 0 {
		c.Run.StepTimeout = 20 * time.Second
	}
	if c.Run.MinSlice <= 0 {
		c.Run.MinSlice = 2 * time.Second
	}
	if c.Run.PollInterval <= 0 {
		c.Run.PollInterval = 200 * time.Millisecond
	}
	if c.Run.PopupTimeout <= 0 {
		c.Run.PopupTimeout = time.Second
	}
	if c.Run.CharDelay == 0 {
		c.Run.CharDelay = 30 * time.Millisecond
	}
	if c.Run.LoginSettle <= 0 {
		c.Run.LoginSettle = 2 * time.Second
	}
	if c.Run.EditorSettle <= 0 {
		c.Run.EditorSettle = 2 * time.Second
	}
	if c.Run.SaveSettle <= 0 {
		c.Run.SaveSettle = 2 * time.Second
	}

	c.Selectors.applyDefaults()

	if c.Compose.Backend == "" {
		c.Compose.Backend = "gemini"
	}
	if c.Compose.Model == "" {
		if c.Compose.Backend == "openai" {
			c.Compose.Model = "gpt-4o-mini"
		} else {
			c.Compose.Model = "gemini-2.5-flash"
		}
	}
	if c.Compose.Temperature == 0 {
		c.Compose.Temperature = 0.7
	}
	if c.Compose.MaxTokens <= 0 {
		c.Compose.MaxTokens = 2000
	}
	if c.Compose.Attempts <= 0 {
		c.Compose.Attempts = 3
	}
	if c.Compose.Backoff <= 0 {
		c.Compose.Backoff = 2 * time.Second
	}
	if c.Compose.Pause <= 0 {
		c.Compose.Pause = time.Second
	}

	if c.Sheet.Path == "" {
		c.Sheet.Path = "posting.xlsx"
	}
	if c.Sheet.HeaderTitle == "" {
		c.Sheet.HeaderTitle = "제목"
	}
	if c.Sheet.HeaderBody == "" {
		c.Sheet.HeaderBody = "본문"
	}

	if c.Store.Path == "" {
		c.Store.Path = "blogpilot.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:8087"
	}
}

// Candidate lists observed on the login page and the SmartEditor write page.
func (s *SelectorsConfig) applyDefaults() {
	if len(s.AccountField) == 0 {
		s.AccountField = []sequence.Candidate{
			sequence.ID("id", "account id"),
			sequence.CSS("input[name='id']", "account name"),
		}
	}
	if len(s.SecretField) == 0 {
		s.SecretField = []sequence.Candidate{
			sequence.ID("pw", "secret id"),
			sequence.CSS("input[type='password']", "password input"),
		}
	}
	if len(s.LoginButton) == 0 {
		s.LoginButton = []sequence.Candidate{
			sequence.CSS(".btn_login", "btn_login"),
			sequence.CSS(".btn_login.off.next_step.nlog-click", "btn_login next_step"),
			sequence.CSS("button[type='submit']", "submit button"),
			sequence.CSS(".btn_login.off", "btn_login off"),
			sequence.CSS("button.btn_login", "button.btn_login"),
		}
	}
	if len(s.EditorReady) == 0 {
		s.EditorReady = []sequence.Candidate{
			sequence.CSS("#mainFrame", "mainFrame marker"),
			sequence.CSS("iframe", "any iframe"),
			sequence.CSS("body", "document body"),
		}
	}
	if len(s.EditorFrame) == 0 {
		s.EditorFrame = []sequence.Candidate{
			sequence.CSS("#mainFrame", "#mainFrame"),
			sequence.CSS("iframe[name='mainFrame']", "iframe name mainFrame"),
			sequence.CSS("iframe", "first iframe"),
		}
	}
	if len(s.Popups) == 0 {
		s.Popups = []sequence.Candidate{
			sequence.CSS(".se-popup-button-cancel", "draft restore popup"),
			sequence.CSS(".se-help-panel-close-button", "help panel"),
		}
	}
	if len(s.Title) == 0 {
		s.Title = []sequence.Candidate{
			sequence.CSS(".se-section-documentTitle", "se documentTitle"),
			sequence.CSS("[data-testid='title-input']", "title testid"),
			sequence.CSS("input[placeholder*='제목']", "title placeholder"),
			sequence.CSS(".title-input", "title-input"),
			sequence.CSS("#title", "#title"),
			sequence.CSS("input[name='title']", "title name"),
		}
	}
	if len(s.Body) == 0 {
		s.Body = []sequence.Candidate{
			sequence.CSS(".se-section-text", "se section-text"),
			sequence.CSS("[data-testid='content-editor']", "content testid"),
			sequence.CSS(".content-editor", "content-editor"),
			sequence.CSS("[contenteditable='true']", "contenteditable"),
			sequence.CSS("textarea[placeholder*='내용']", "content placeholder"),
			sequence.CSS(".editor-content", "editor-content"),
		}
	}
	if len(s.Save) == 0 {
		s.Save = []sequence.Candidate{
			sequence.CSS(".save_btn__bzc5B", "save_btn hashed"),
			sequence.CSS("[data-testid='save-button']", "save testid"),
			sequence.CSS("button[title='저장']", "save title"),
			sequence.XPath("//button[contains(normalize-space(.), '저장')]", "save text"),
			sequence.CSS(".btn-save", "btn-save"),
			sequence.CSS("#save-btn", "#save-btn"),
		}
	}
	if len(s.ConfirmSave) == 0 {
		s.ConfirmSave = []sequence.Candidate{
			sequence.CSS(".se-popup-button-confirm", "confirm popup"),
			sequence.XPath("//div[contains(@class,'se-popup')]//button[contains(normalize-space(.), '확인')]", "confirm text"),
		}
	}
}
