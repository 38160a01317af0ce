package ai

import "strings"

// Kind selects a family of canned responses.
type Kind string

const (
	KindDialogue   Kind = "dialogue"
	KindCompliment Kind = "compliment"
)

var fallbacks = map[Kind]map[string]string{
	KindDialogue: {
		"en": "I'm sorry, I couldn't think of the right words just now. Could you tell me a little more?",
		"be": "দুঃখিত, এই মুহূর্তে ঠিক কথাটা খুঁজে পাচ্ছি না। আর একটু বলবে?",
		"hi": "माफ़ करना, अभी सही शब्द नहीं सूझ रहे। क्या तुम थोड़ा और बताओगे?",
		"ta": "மன்னிக்கவும், இப்போது சரியான வார்த்தைகள் தோன்றவில்லை. இன்னும் கொஞ்சம் சொல்வாயா?",
	},
	KindCompliment: {
		"en": "You look wonderful in this photo! Your smile really brightens my day.",
		"be": "এই ছবিতে তোমাকে দারুণ লাগছে! তোমার হাসি আমার দিনটা উজ্জ্বল করে দেয়।",
		"hi": "इस फ़ोटो में तुम बहुत अच्छे लग रहे हो! तुम्हारी मुस्कान मेरा दिन रोशन कर देती है।",
		"ta": "இந்தப் புகைப்படத்தில் நீ அழகாக இருக்கிறாய்! உன் புன்னகை என் நாளை ஒளிரச் செய்கிறது.",
	},
}

// FallbackText returns the canned response for kind in the family of language. The family
// is the first two characters of the language name, ignoring case; anything unknown gets
// English.
func FallbackText(kind Kind, language string) string {
	texts, ok := fallbacks[kind]
	if !ok {
		texts = fallbacks[KindDialogue]
	}
	if text, ok := texts[languageFamily(language)]; ok {
		return text
	}
	return texts["en"]
}

func languageFamily(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if lang == "" {
		lang = strings.ToLower(DefaultLanguage)
	}
	runes := []rune(lang)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}
