package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bind makes a flag override key only when it was given on the command line
func bind(v *viper.Viper, flag *pflag.Flag, key string) {
	if flag == nil {
		panic("unknown flag for " + key)
	}
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
