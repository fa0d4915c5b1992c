package imagegen

import "bytes"

var signatures = []struct {
	prefix []byte
	mime   string
}{
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte("\xff\xd8\xff"), "image/jpeg"},
	{[]byte("GIF87a"), "image/gif"},
	{[]byte("GIF89a"), "image/gif"},
}

// DetectMIME は先頭のシグネチャから画像形式を判定します。
func DetectMIME(b []byte) (string, bool) {
	for _, s := range signatures {
		if bytes.HasPrefix(b, s.prefix) {
			return s.mime, true
		}
	}
	if len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP" {
		return "image/webp", true
	}
	return "", false
}
