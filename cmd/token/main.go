package main

import (
	"Go_Share/config"
	"Go_Share/internal/repo"
	"Go_Share/model"
	"Go_Share/utils"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
)

// token issues an upload token, creating the user when it does not exist.
func main() {
	name := flag.String("user", "", "user name")
	admin := flag.Bool("admin", false, "create the user as administrator")
	domains := flag.String("domains", "", "comma separated domains for a new user")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()
	if strings.TrimSpace(*name) == "" {
		log.Fatal("-user is required")
	}

	config.InitConfig()
	repo.InitMysql()

	var user model.User
	err := repo.Db.Where("user_name = ?", *name).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = model.User{UserName: *name, Administrator: *admin}
		for _, d := range strings.Split(*domains, ",") {
			if d = strings.TrimSpace(d); d != "" {
				user.Domains = append(user.Domains, d)
			}
		}
		err = repo.Db.Create(&user).Error
	}
	if err != nil {
		log.Fatalf("load user failed: %v", err)
	}

	token, err := utils.GenerateToken(user.ID, user.UserName, *ttl)
	if err != nil {
		log.Fatalf("sign token failed: %v", err)
	}
	fmt.Println(token)
}
