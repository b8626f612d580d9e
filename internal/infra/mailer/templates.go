package mailer

import "fmt"

func OTPMessage(purpose, code string, minutes int) (subject, body string) {
	switch purpose {
	case "reset":
		subject = "Reset your password"
		body = fmt.Sprintf("Your password reset code is %s.\n\nIt expires in %d minutes. If you did not ask for it, ignore this email.", code, minutes)
	default:
		subject = "Verify your email"
		body = fmt.Sprintf("Your verification code is %s.\n\nIt expires in %d minutes.", code, minutes)
	}
	return subject, body
}

func ReceiptMessage(courseTitle, amount, currency, purchaseID string) (subject, body string) {
	subject = "Enrollment confirmed: " + courseTitle
	body = fmt.Sprintf(
		"Hello!\n\nYour payment of %s %s was received and you are now enrolled in %q.\nPurchase ID: %s\n\nHappy learning!",
		amount, currency, courseTitle, purchaseID,
	)
	return subject, body
}
