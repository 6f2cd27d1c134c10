// Package notify 实现通知的最佳努力发送：失败只记录日志，绝不中断调用方
// 的事务（见规格 4.11 的 best-effort 通道语义）。
package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/rotaforge/rotaforge/pkg/errors"
	"github.com/rotaforge/rotaforge/pkg/logger"
)

// Message 是一条待发送的通知
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer 发送通知；实现记录发送失败的日志，可以返回 NotificationFailure
// 错误，调用方吞掉该错误，不据此中断流程。
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig 配置最小化的 SMTP 发信
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPMailer 是 Mailer 的 SMTP 实现。检索包内没有任何邮件发送第三方库，
// 这里退回标准库 net/smtp；发信失败只记录日志，从不返回会中断调用方
// 事务的错误（对应 errors.CodeNotificationFailure）。
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer 创建 SMTP 发信器
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send 尝试发送一条通知；失败时记录日志并返回 NotificationFailure，
// 调用方应当把它当作吞掉的错误处理（不回滚已提交的写入）。
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	body := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n", msg.To, msg.Subject, msg.Body))

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, body); err != nil {
		logger.WithError(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("通知发送失败，已忽略")
		return errors.New(errors.CodeNotificationFailure, "通知发送失败").WithCause(err)
	}
	return nil
}

// NoopMailer 在未配置 SMTP 时使用，只记录日志，供开发/测试环境使用。
type NoopMailer struct{}

// Send 只记录日志，从不失败
func (NoopMailer) Send(ctx context.Context, msg Message) error {
	logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("通知（noop）")
	return nil
}
