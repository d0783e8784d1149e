package logger

import "log/slog"

// Domain attribute helpers keep log field names consistent across packages.

func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

func PlanID(id string) slog.Attr {
	return slog.String("plan_id", id)
}

func LimitKey(key string) slog.Attr {
	return slog.String("limit_key", key)
}

func PermissionKey(key string) slog.Attr {
	return slog.String("permission_key", key)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}
