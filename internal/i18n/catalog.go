// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package i18n

// English is the fallback catalog.
var English = Catalog{
	"chat.welcome":              "Hello! I'm Chetna, your mental wellness companion. How are you feeling today? You can type or speak to me.",
	"chat.welcome_named":        "Hello {name}! I'm Chetna, your mental wellness companion. How are you feeling today?",
	"chat.welcome_personalized": "Welcome back, {name}. I noticed your recent {test} result suggests {severity} symptoms. I'm here for you. How are you feeling today?",
	"chat.friend":               "friend",
	"chat.placeholder":          "Type your message...",
	"chat.placeholder_limited":  "Sign in to continue chatting",
	"chat.typing":               "Chetna is typing...",
	"chat.listening":            "Listening...",
	"chat.you":                  "You",
	"chat.assistant":            "Chetna",
	"chat.suggestions":          "You could ask",

	"chat.cleared.title":       "Chat cleared",
	"chat.cleared.message":     "Your conversation has been cleared.",
	"chat.expired.title":       "Chat reset",
	"chat.expired.message":     "Your chat was cleared automatically for your privacy.",
	"chat.basic_mode.title":    "Basic mode",
	"chat.basic_mode.message":  "I'm having trouble connecting right now, so I'm answering in basic mode.",
	"chat.limit.title":         "Message limit reached",
	"chat.limit.message":       "You've used your {limit} free messages. Please sign in to keep chatting.",
	"chat.speech.error.title":  "Voice input error",
	"chat.speech.unsupported":  "Voice input is not available on this device.",
	"chat.speech.no_speech":    "I didn't catch that. Please try again.",
	"chat.signed_in":           "Signed in as {name}.",
	"chat.signed_out":          "Signed out.",
	"chat.language_changed":    "Language changed to {language}.",
	"chat.copied":              "Copied to clipboard.",
	"chat.guest_remaining":     "{remaining} free messages left",

	"playback.muted":    "Muted",
	"playback.unmuted":  "Sound on",
	"playback.speed":    "Speed {speed}x",
	"playback.autoplay": "Auto-play {state}",

	"severity.minimal":           "minimal",
	"severity.mild":              "mild",
	"severity.moderate":          "moderate",
	"severity.moderately_severe": "moderately severe",
	"severity.severe":            "severe",
	"severity.low":               "low",
	"severity.high":              "high",
}

// Hindi catalog.
var Hindi = Catalog{
	"chat.welcome":              "नमस्ते! मैं चेतना हूँ, आपकी मानसिक स्वास्थ्य साथी। आज आप कैसा महसूस कर रहे हैं? आप लिखकर या बोलकर बात कर सकते हैं।",
	"chat.welcome_named":        "नमस्ते {name}! मैं चेतना हूँ, आपकी मानसिक स्वास्थ्य साथी। आज आप कैसा महसूस कर रहे हैं?",
	"chat.welcome_personalized": "फिर से स्वागत है, {name}। आपके हाल के {test} परिणाम में {severity} लक्षण दिखे। मैं आपके साथ हूँ। आज आप कैसा महसूस कर रहे हैं?",
	"chat.friend":               "दोस्त",
	"chat.placeholder":          "अपना संदेश लिखें...",
	"chat.placeholder_limited":  "बातचीत जारी रखने के लिए साइन इन करें",
	"chat.typing":               "चेतना लिख रही है...",
	"chat.listening":            "सुन रही हूँ...",
	"chat.you":                  "आप",
	"chat.assistant":            "चेतना",
	"chat.suggestions":          "आप पूछ सकते हैं",

	"chat.cleared.title":      "चैट साफ़ की गई",
	"chat.cleared.message":    "आपकी बातचीत साफ़ कर दी गई है।",
	"chat.expired.title":      "चैट रीसेट",
	"chat.expired.message":    "आपकी गोपनीयता के लिए चैट अपने आप साफ़ कर दी गई।",
	"chat.basic_mode.title":   "बेसिक मोड",
	"chat.basic_mode.message": "अभी कनेक्ट करने में दिक्कत है, इसलिए मैं बेसिक मोड में जवाब दे रही हूँ।",
	"chat.limit.title":        "संदेश सीमा पूरी हुई",
	"chat.limit.message":      "आपने अपने {limit} मुफ़्त संदेश इस्तेमाल कर लिए हैं। कृपया साइन इन करें।",
	"chat.speech.error.title": "वॉइस इनपुट त्रुटि",
	"chat.speech.unsupported": "इस डिवाइस पर वॉइस इनपुट उपलब्ध नहीं है।",
	"chat.speech.no_speech":   "मैं सुन नहीं पाई। कृपया फिर से कोशिश करें।",
	"chat.signed_in":          "{name} के रूप में साइन इन किया।",
	"chat.signed_out":         "साइन आउट किया।",
	"chat.language_changed":   "भाषा बदलकर {language} की गई।",
	"chat.copied":             "क्लिपबोर्ड पर कॉपी किया।",
	"chat.guest_remaining":    "{remaining} मुफ़्त संदेश बचे हैं",

	"playback.muted":    "म्यूट",
	"playback.unmuted":  "आवाज़ चालू",
	"playback.speed":    "गति {speed}x",
	"playback.autoplay": "ऑटो-प्ले {state}",

	"severity.minimal":           "न्यूनतम",
	"severity.mild":              "हल्के",
	"severity.moderate":          "मध्यम",
	"severity.moderately_severe": "मध्यम-गंभीर",
	"severity.severe":            "गंभीर",
	"severity.low":               "कम",
	"severity.high":              "अधिक",
}
