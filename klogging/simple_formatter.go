package klogging

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// SimpleFormatter implements the logrus.Formatter interface. Output shape:
// "2006-01-02 15:04:05.000 INFO event=Heartbeat msg='Still alive!' k=v "
type SimpleFormatter struct {
}

func NewSimpleFormatter() logrus.Formatter {
	return &SimpleFormatter{}
}

// Format implements the logrus.Formatter interface.
func (f *SimpleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var sb strings.Builder
	dict := entry.Data
	sb.WriteString(entry.Time.Format("2006-01-02 15:04:05.000"))
	sb.WriteString(" ")
	sb.WriteString(strings.ToUpper(entry.Level.String()))
	sb.WriteString(" ")
	if event, ok := dict["event"]; ok {
		delete(dict, "event")
		sb.WriteString("event=")
		sb.WriteString(event.(string))
		sb.WriteString(" ")
	}
	sb.WriteString("msg=")
	sb.WriteString(AddingAdditionalQuotes(entry.Message))
	sb.WriteString(" ")

	for k, v := range dict {
		if k == "time" || k == "level" {
			continue
		}
		sb.WriteString(k)
		sb.WriteString("=")

		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.String:
			sb.WriteString(AddingAdditionalQuotes(rv.String()))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			sb.WriteString(strconv.FormatInt(rv.Int(), 10))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			sb.WriteString(strconv.FormatUint(rv.Uint(), 10))
		case reflect.Float32, reflect.Float64:
			sb.WriteString(strconv.FormatFloat(rv.Float(), 'f', -1, 64))
		case reflect.Bool:
			sb.WriteString(strconv.FormatBool(rv.Bool()))
		default:
			sb.WriteString(fmt.Sprintf("%v", v))
		}
		sb.WriteString(" ")
	}
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// AddingAdditionalQuotes quotes values that contain spaces so the line stays
// splunk/grep friendly. Newlines are stripped to keep one entry per line.
func AddingAdditionalQuotes(v string) string {
	v = strings.ReplaceAll(v, "\n", "")
	if v == "" || strings.Contains(v, " ") {
		return "'" + strings.ReplaceAll(v, "'", "\\'") + "'"
	}
	return v
}
