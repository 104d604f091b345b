package logger

import (
	"log"
	"log/syslog"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/podlake/explorer/explorer/config"
	"github.com/sirupsen/logrus"
)

type LogInfo logrus.Fields

var RLogs *rotatelogs.RotateLogs
var Logger = logrus.New()

// InitLogger configures Logger from config.Cloki.Setting.LOG_SETTINGS.
func InitLogger() {
	if config.Cloki.Setting.LOG_SETTINGS.Json {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else if f, ok := Logger.Formatter.(*logrus.TextFormatter); ok {
		f.DisableTimestamp = false
		f.DisableColors = true
	}

	if config.Cloki.Setting.LOG_SETTINGS.Stdout {
		Logger.SetOutput(os.Stdout)
		log.SetOutput(os.Stdout)
	}

	if config.Cloki.Setting.LOG_SETTINGS.Level == "" {
		config.Cloki.Setting.LOG_SETTINGS.Level = "error"
	}
	SetLoggerLevel(config.Cloki.Setting.LOG_SETTINGS.Level)

	Logger.Info("init logging system")

	if !config.Cloki.Setting.LOG_SETTINGS.Stdout && !config.Cloki.Setting.LOG_SETTINGS.SysLog {
		configureLocalFileSystemHook()
	} else if !config.Cloki.Setting.LOG_SETTINGS.Stdout {
		configureSyslogHook()
	}
}

func SetLoggerLevel(loglevelString string) {
	if logLevel, err := logrus.ParseLevel(loglevelString); err == nil {
		Logger.SetLevel(logLevel)
	} else {
		Logger.Error("Couldn't parse loglevel", loglevelString)
		Logger.SetLevel(logrus.ErrorLevel)
	}
}

func configureLocalFileSystemHook() {
	logPath := config.Cloki.Setting.LOG_SETTINGS.Path
	logName := config.Cloki.Setting.LOG_SETTINGS.Name
	var err error

	if configPath := os.Getenv("WEBAPPLOGPATH"); configPath != "" {
		logPath = configPath
	}
	if configName := os.Getenv("WEBAPPLOGNAME"); configName != "" {
		logName = configName
	}

	fileLogExtension := filepath.Ext(logName)
	fileLogBase := strings.TrimSuffix(logName, fileLogExtension)

	pathAllLog := logPath + "/" + fileLogBase + "_%Y%m%d%H%M" + fileLogExtension
	pathLog := logPath + "/" + logName

	RLogs, err = rotatelogs.New(
		pathAllLog,
		rotatelogs.WithLinkName(pathLog),
		rotatelogs.WithMaxAge(time.Duration(config.Cloki.Setting.LOG_SETTINGS.MaxAgeDays)*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(config.Cloki.Setting.LOG_SETTINGS.RotationHours)*time.Hour),
	)
	if err != nil {
		Logger.Println("Local file system hook initialize fail")
		return
	}

	Logger.SetOutput(RLogs)
	log.SetOutput(RLogs)
}

func configureSyslogHook() {
	Logger.Println("Init syslog...")

	severity := getSeverityByName(config.Cloki.Setting.LOG_SETTINGS.SysLogLevel)
	syslogger, err := syslog.New(severity, "podlake-explorer")
	if err != nil {
		Logger.Println("Unable to connect to syslog:", err)
		return
	}

	Logger.SetOutput(syslogger)
	log.SetOutput(syslogger)
}

func Info(args ...interface{}) {
	Logger.Info(args...)
}

func Error(args ...interface{}) {
	Logger.Error(args...)
}

func Debug(args ...interface{}) {
	Logger.Debug(args...)
}

func WithFields(fields LogInfo) *logrus.Entry {
	return Logger.WithFields(logrus.Fields(fields))
}

var syslogSeverities = map[string]syslog.Priority{
	"LOG_EMERG":   syslog.LOG_EMERG,
	"LOG_ALERT":   syslog.LOG_ALERT,
	"LOG_CRIT":    syslog.LOG_CRIT,
	"LOG_ERR":     syslog.LOG_ERR,
	"LOG_WARNING": syslog.LOG_WARNING,
	"LOG_NOTICE":  syslog.LOG_NOTICE,
	"LOG_INFO":    syslog.LOG_INFO,
	"LOG_DEBUG":   syslog.LOG_DEBUG,
}

func getSeverityByName(severity string) syslog.Priority {
	if res, ok := syslogSeverities[severity]; ok {
		return res
	}
	return syslog.LOG_INFO
}
