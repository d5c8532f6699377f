package scenario

import "github.com/PabloGalante/scam-harness/internal/domain"

func scammer(text string) domain.ScriptedMessage {
	return domain.ScriptedMessage{Sender: domain.SenderScammer, Text: text}
}

// builtins are the scenarios shipped with the harness.
var builtins = []domain.Scenario{
	{
		Name: "Bank Fraud",
		Messages: []domain.ScriptedMessage{
			scammer("URGENT: Your SBI account will be blocked in 2 hours. Click here to verify: http://bit.ly/verify-sbi-urgent. Enter your account number and CVV immediately."),
		},
		Language: "English",
		Channel:  "SMS",
	},
	{
		Name: "UPI Fraud",
		Messages: []domain.ScriptedMessage{
			scammer("Your PhonePe payment of ₹5000 has failed. To receive refund, kindly share your UPI ID and verify OTP we will send."),
		},
		Language: "English",
		Channel:  "WhatsApp",
	},
	{
		Name: "Phishing",
		Messages: []domain.ScriptedMessage{
			scammer("Congratulations! You have won ₹10 lakhs in Amazon lucky draw. Click to claim your prize now: http://tiny.cc/amazon-winner. Limited time offer!"),
		},
		Language: "English",
		Channel:  "Email",
	},
	{
		Name: "Tech Support",
		Messages: []domain.ScriptedMessage{
			scammer("Microsoft Security Alert: Your computer has been infected with dangerous virus. Call +91-9876543210 immediately or pay ₹2999 for urgent cleanup. Download our tool: http://fix-virus.now"),
		},
		Language: "English",
		Channel:  "Email",
	},
	{
		Name: "Romance Scam",
		Messages: []domain.ScriptedMessage{
			scammer("Hi dear, I am stuck in Mumbai with medical emergency. I need ₹50000 urgently for hospital bills. Please send money to this account: 123456789012. I will return soon."),
		},
		Language: "English",
		Channel:  "Chat",
	},
	{
		Name: "Hindi Bank Fraud",
		Messages: []domain.ScriptedMessage{
			scammer("तुरंत ध्यान दें! आपका HDFC बैंक खाता 1 घंटे में बंद हो जाएगा। अपना खाता नंबर और OTP यहाँ भेजें: +91-8765432109. KYC अपडेट करें।"),
		},
		Language: "Hindi",
		Channel:  "SMS",
	},
}
