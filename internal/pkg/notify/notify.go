package notify

// Notifier 定义通知接口。
type Notifier interface {
	// SendPasswordResetOTP 发送密码重置验证码。
	//
	// 参数:
	//   toEmail: 接收邮箱
	//   name: 用户显示名称
	//   otp: 6 位验证码
	SendPasswordResetOTP(toEmail string, name string, otp string) error
}
