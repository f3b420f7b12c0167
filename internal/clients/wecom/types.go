package wecom

import "fmt"

// apiError is the errcode/errmsg envelope every WeCom API response
// carries. errcode 0 means success.
type apiError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (e apiError) asError() error {
	if e.ErrCode == 0 {
		return nil
	}
	return fmt.Errorf("wecom api error %d: %s", e.ErrCode, e.ErrMsg)
}

// tokenResponse is the body returned by /cgi-bin/gettoken.
type tokenResponse struct {
	apiError
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// sendResponse is the body returned by /cgi-bin/message/send.
type sendResponse struct {
	apiError
	InvalidUser  string `json:"invaliduser"`
	InvalidParty string `json:"invalidparty"`
	InvalidTag   string `json:"invalidtag"`
	MsgID        string `json:"msgid"`
}
