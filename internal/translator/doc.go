// Package translator detects the language of posts and topics and
// translates them through an external provider: Microsoft Translator,
// Google Cloud Translation, Yandex, LibreTranslate, Amazon Translate or an
// LLM backend. The Service type is the single dispatch point and caches
// detected locales and translations in custom fields.
package translator
