package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"minishop/internal/config"

	"gopkg.in/gomail.v2"
)

// EmailNotifier 实现邮件通知。
type EmailNotifier struct {
	cfg    *config.EmailConfig
	logger *slog.Logger
}

// NewEmailNotifier 创建一个新的邮件通知器。
func NewEmailNotifier(cfg *config.EmailConfig, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

// SendPasswordResetOTP 发送密码重置验证码邮件。
func (n *EmailNotifier) SendPasswordResetOTP(toEmail string, name string, otp string) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		return fmt.Errorf("email config missing")
	}
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Đặt lại mật khẩu - MiniShop")

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 600px; margin: 0 auto; padding: 16px;">
    <h2 style="color: #1890ff;">Đặt lại mật khẩu</h2>
    <p>Xin chào %s,</p>
    <p>Bạn đã yêu cầu đặt lại mật khẩu cho tài khoản của mình.</p>
    <div style="background-color: #f6ffed; border: 1px solid #b7eb8f; padding: 20px; margin: 20px 0; border-radius: 4px;">
      <p style="margin: 0; font-size: 18px; font-weight: bold; color: #52c41a;">
        Mã OTP của bạn: <span style="font-size: 24px;">%s</span>
      </p>
    </div>
    <p>Mã OTP sẽ hết hạn sau 10 phút. Vui lòng không chia sẻ mã này với ai khác.</p>
    <p>Nếu bạn không yêu cầu đặt lại mật khẩu, vui lòng bỏ qua email này.</p>
  </div>
</body>
</html>`, name, otp)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("password reset email sent", slog.String("to", toEmail))
	return nil
}
