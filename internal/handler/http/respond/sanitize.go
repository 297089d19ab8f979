package respond

import (
	"regexp"
)

var (
	// URL形式のDSN内パスワード
	dbPasswordPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
	// key=value形式のDSN
	kvPasswordPattern = regexp.MustCompile(`(?i)(password=)\S+`)
	bearerPattern     = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9\-_.~+/]+=*`)
	jwtPattern        = regexp.MustCompile(`eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)
	// 署名付きURLのクエリ (S3 / CDN)
	signedQueryPattern = regexp.MustCompile(`(?i)([?&](?:x-amz-signature|x-amz-credential|x-amz-security-token|signature|sig|token)=)[^&\s"]+`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	msg = jwtPattern.ReplaceAllString(msg, "eyJ****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = kvPasswordPattern.ReplaceAllString(msg, "${1}****")
	msg = signedQueryPattern.ReplaceAllString(msg, "${1}****")

	return msg
}
