package agent

import "context"

// StaticMessaging is a Messaging for headless clients that already hold
// a device token, such as a device provisioned out of band.
type StaticMessaging struct {
	Token string
	// Answer is what RequestPermission returns; empty means granted
	Answer Permission

	permission Permission
}

func (s *StaticMessaging) Available() bool { return true }

func (s *StaticMessaging) Permission() Permission {
	if s.permission == "" {
		return PermissionDefault
	}
	return s.permission
}

func (s *StaticMessaging) RequestPermission(context.Context) (Permission, error) {
	s.permission = s.Answer
	if s.permission == "" {
		s.permission = PermissionGranted
	}
	return s.permission, nil
}

func (s *StaticMessaging) GetToken(context.Context, string) (string, error) {
	return s.Token, nil
}
