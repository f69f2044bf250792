// Package mail 发送邮件通知。未配置 SMTP 时退化为只记日志的空实现。
package mail

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"timesheet/config"
)

// Message 一封待发送的邮件
type Message struct {
	To      []string
	Cc      []string
	Subject string
	HTML    string
}

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender 按配置创建发送器，SMTPHost 为空时返回 NopSender
func NewSender(cfg *config.MailConfig, logger *zap.Logger) Sender {
	if cfg.SMTPHost == "" {
		logger.Info("未配置 SMTP，邮件通知已禁用")
		return &NopSender{logger: logger}
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   from,
		logger: logger,
	}
}

// SMTPSender 基于 gomail 的 SMTP 发送器
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// Send 同步发送一封邮件；gomail 不支持 context，仅在发送前检查取消
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := buildMessage(s.from, msg)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	s.logger.Debug("邮件已发送", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func buildMessage(from string, msg Message) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("收件人不能为空")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return m, nil
}

// NopSender 不发送任何邮件
type NopSender struct {
	logger *zap.Logger
}

// NewNopSender 创建空发送器
func NewNopSender(logger *zap.Logger) *NopSender {
	return &NopSender{logger: logger}
}

// Send 仅记录日志
func (s *NopSender) Send(_ context.Context, msg Message) error {
	s.logger.Debug("邮件通知已跳过", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
