package main

import (
	"encoding/base64"
	"flag"
	"os"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/signalctl/policy/dqn"
	"github.com/tsinghua-fib-lab/signalctl/sim"
	"github.com/tsinghua-fib-lab/signalctl/task"
	"github.com/tsinghua-fib-lab/signalctl/utils/checkpoint"
	"github.com/tsinghua-fib-lab/signalctl/utils/config"
	"gopkg.in/yaml.v2"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 连续运行的episode数，训练时通常大于1
	episodes = flag.Int("episodes", 1, "number of episodes to run")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "signalctl")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	c := config.Default()
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		log.Panicf("config file load err: %v", err)
	}
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		log.Panicf("config validate err: %v", err)
	}
	log.Infof("%+v", c)

	// 由拓扑配置组装内置排队模拟器
	adapter := sim.NewLocal(localLanes(c), localJunctions(c), c.Control.Seed)
	ctx, err := task.NewContext(rc, adapter)
	if err != nil {
		log.Panicf("context init err: %v", err)
	}

	// dqn策略按配置加载/保存检查点
	var store checkpoint.Store
	learner, _ := ctx.Policy().(*dqn.DQN)
	if learner != nil && (c.Checkpoint.File != "" || c.Checkpoint.URI != "") {
		store, err = checkpoint.New(c.Checkpoint)
		if err != nil {
			log.Panicf("checkpoint init err: %v", err)
		}
		if p, err := store.Load(c.Checkpoint.Tag); err != nil {
			log.Warnf("checkpoint load skipped: %v", err)
		} else if err := learner.SetParams(p); err != nil {
			log.Panicf("checkpoint restore err: %v", err)
		} else {
			log.Infof("checkpoint %s restored", c.Checkpoint.Tag)
		}
	}

	for i := 0; i < *episodes; i++ {
		m, err := ctx.RunEpisode()
		if err != nil {
			log.Panicf("episode %d err: %v", i, err)
		}
		log.Infof("episode %d: reward=%.2f decisions=%d switches=%d cause=%s",
			i, m.CumulativeReward, m.Decisions, lo.Sum(lo.Values(m.Switches)), m.TerminalCause)
	}

	if learner != nil && store != nil {
		p, err := learner.Params(c.Checkpoint.Tag)
		if err != nil {
			log.Panicf("checkpoint export err: %v", err)
		}
		if err := store.Save(p); err != nil {
			log.Panicf("checkpoint save err: %v", err)
		}
		log.Infof("checkpoint %s saved", c.Checkpoint.Tag)
	}
}

// localLanes 拓扑配置到内置模拟器车道的转换
func localLanes(c config.Config) []sim.LocalLane {
	lanes := make([]sim.LocalLane, 0)
	for _, j := range c.Junctions {
		for _, l := range j.Lanes {
			lanes = append(lanes, sim.LocalLane{
				ID:         l.ID,
				Arrival:    l.Arrival,
				Discharge:  l.Discharge,
				Downstream: l.Downstream,
			})
		}
	}
	return lanes
}

// localJunctions 拓扑配置到内置模拟器路口的转换
func localJunctions(c config.Config) []sim.LocalJunction {
	return lo.Map(c.Junctions, func(j config.Junction, _ int) sim.LocalJunction {
		return sim.LocalJunction{
			ID: j.ID,
			Phases: lo.Map(j.Phases, func(p config.Phase, _ int) []string {
				return p.Green
			}),
		}
	})
}
