package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"zhipin-sync/internal/model"
)

// EmailConfig 邮件配置。
type EmailConfig struct {
	Host     string   `yaml:"host" json:"host"`
	Port     int      `yaml:"port" json:"port"`
	Username string   `yaml:"username" json:"username"`
	Password string   `yaml:"password" json:"password"`
	From     string   `yaml:"from" json:"from"`
	To       []string `yaml:"to" json:"to"`
	Subject  string   `yaml:"subject" json:"subject"`
}

// EmailMessage 表示一封邮件。
type EmailMessage struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// EmailSender 抽象发送接口，便于测试替换。
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPClient 封装 SMTP 发送。
type SMTPClient struct {
	addr string
	auth smtp.Auth
}

func NewSMTPClient(cfg EmailConfig) *SMTPClient {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPClient{addr: addr, auth: auth}
}

func (c *SMTPClient) Send(ctx context.Context, msg EmailMessage) error {
	data := buildEmailData(msg)
	return smtp.SendMail(c.addr, c.auth, msg.From, msg.To, []byte(data))
}

// EmailNotifier 将同步运行摘要发送邮件。
type EmailNotifier struct {
	cfg    EmailConfig
	sender EmailSender
}

// NewEmailNotifier 创建 EmailNotifier。
func NewEmailNotifier(cfg EmailConfig, sender EmailSender) *EmailNotifier {
	if sender == nil {
		sender = NewSMTPClient(cfg)
	}
	if cfg.Subject == "" {
		cfg.Subject = "门店数据同步报告"
	}
	return &EmailNotifier{cfg: cfg, sender: sender}
}

// NotifyRunCompleted 将一次运行的摘要发送到配置的收件人。
func (n EmailNotifier) NotifyRunCompleted(ctx context.Context, rec model.SyncRecord) error {
	msg := EmailMessage{
		From:    n.cfg.From,
		To:      n.cfg.To,
		Subject: n.cfg.Subject,
		Body:    buildRunBody(rec),
	}
	return n.sender.Send(ctx, msg)
}

func buildRunBody(rec model.SyncRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("同步运行 %s\n", rec.ID))
	b.WriteString(fmt.Sprintf("整体结果: %s，耗时 %dms\n", statusText(rec.OverallSuccess), rec.TotalDurationMS))
	for _, res := range rec.Results {
		if res.Success {
			b.WriteString(fmt.Sprintf("- %s: 门店 %d 个，记录 %d 条\n", res.BrandName, res.StoreCount, res.ProcessedRecords))
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: 失败 %s\n", res.BrandName, strings.Join(res.Errors, "; ")))
	}
	return b.String()
}

func statusText(success bool) string {
	if success {
		return "成功"
	}
	return "部分失败"
}

func buildEmailData(msg EmailMessage) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
